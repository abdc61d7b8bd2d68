// Package parley provides a self-hosted chat server with JWT authentication,
// direct and group messaging, websocket realtime delivery, and a Lua-based
// extension system. It is designed to be decoupled from any particular
// frontend and exposes the pieces the cmd/parleyd launcher and the HTTP layer
// assemble at startup.
//
// The core functionality includes:
//   - User accounts with bcrypt password storage and rotated refresh tokens
//   - Direct and group conversations backed by SQLite
//   - Redis-backed presence tracking and session storage
//   - MinIO-backed avatar storage
//   - Lua extensions that can inspect, rewrite, or drop outbound messages
package parley

import (
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/parley-chat/parley/blob"
	"github.com/parley-chat/parley/domain"
	"github.com/parley-chat/parley/extensions"
	"github.com/parley-chat/parley/listener"
	"github.com/sirupsen/logrus"
)

const (
	certFile = "parley_cert.pem" // Certificate File Name
	keyFile  = "parley_key.pem"  // Private Key File Name
)

// Version is the release version reported by the launcher.
var Version = "0.1.0"

// Repository defines the methods consumed by the server to interact with the
// SQLite backend. It combines the per-entity repositories the db package
// implements on a single connection.
type Repository interface {
	domain.UserRepository
	domain.GroupRepository
	domain.MessageRepository
	domain.ExtensionRepository
	domain.LogRepository
	Close() error
}

// Server is the main struct that orchestrates the chat service: storage,
// presence, blob storage, the extension pipeline, and logging. It serves as
// the central coordinator that the HTTP and websocket layers are built on.
type Server struct {
	ConfigDir      string                // The configuration directory
	Config         *Config               // The server configuration
	Repo           Repository            // DB Repository Interface
	Presence       domain.SessionStore   // Redis presence and session client
	Blobs          *blob.Store           // MinIO avatar store
	Extensions     []*extensions.Runtime // Slice of loaded extension runtimes
	DBWriteChannel chan domain.Log       // Async log write channel
	OnLog          func(log domain.Log) error
	Logger         *logrus.Logger // Structured application logger
	Addr           string         // IP Address the server is bound to
	Port           string         // Port the server is bound to
	TLSConfig      *tls.Config
}

// New creates a new Server instance with default configuration and applies any
// provided options.
func New(options ...func(*Server) error) (*Server, error) {
	server := &Server{
		Config:         &Config{},
		DBWriteChannel: make(chan domain.Log, 10),
		Extensions:     make([]*extensions.Runtime, 0),
		Logger:         logrus.New(),
	}
	err := server.WithOptions(options...)
	if err != nil {
		return nil, err
	}
	return server, nil
}

// GetConfigDir returns the configuration directory. It satisfies the
// extensions.ChatService interface.
func (server *Server) GetConfigDir() (string, error) {
	if server.ConfigDir == "" {
		return "", fmt.Errorf("config directory is not set")
	}
	return server.ConfigDir, nil
}

// GetExtensionRepo returns the extension repository for Lua settings access.
// It satisfies the extensions.ChatService interface.
func (server *Server) GetExtensionRepo() (domain.ExtensionRepository, error) {
	if server.Repo == nil {
		return nil, fmt.Errorf("server has no repository configured")
	}
	return server.Repo, nil
}

// GetExtension returns the loaded runtime for the named extension.
func (server *Server) GetExtension(name string) (*extensions.Runtime, bool) {
	for _, ext := range server.Extensions {
		if ext.Data.Name == name {
			return ext, true
		}
	}
	return nil, false
}

// ProcessMessage runs an outbound message through every enabled extension in
// load order. An extension may rewrite the message or veto its delivery.
// Extension failures are logged and the message continues unchanged, a broken
// script never blocks chat.
func (server *Server) ProcessMessage(message *extensions.Message) (*extensions.Message, bool) {
	current := message
	for _, ext := range server.Extensions {
		if !ext.Data.Enabled {
			continue
		}
		next, deliver, err := ext.OnMessage(current)
		if err != nil {
			server.WriteLog("ERROR", err.Error())
			continue
		}
		if !deliver {
			return current, false
		}
		current = next
	}
	return current, true
}

// WriteToDB drains the log channel into the repository. It is meant to run as
// a goroutine for the lifetime of the server.
func (server *Server) WriteToDB() {
	for entry := range server.DBWriteChannel {
		err := server.Repo.InsertLog(&entry)
		if err != nil {
			log.Print(err)
		}
		if server.OnLog != nil {
			if err := server.OnLog(entry); err != nil {
				log.Print(err)
			}
		}
	}
}

// WriteLog validates the level, stamps the entry, applies the options, and
// queues it for the async writer.
func (server *Server) WriteLog(level string, message string, options ...func(log *domain.Log) error) error {
	switch level {
	case "DEBUG":
	case "INFO":
	case "WARN":
	case "ERROR":
	case "FATAL":
	default:
		return fmt.Errorf("level should be either: debug, info, warn, error, fatal")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating new uuid : %w", err)
	}
	entry := domain.Log{
		ID:        id,
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
	}
	for _, option := range options {
		err := option(&entry)
		if err != nil {
			return fmt.Errorf("applying log option : %w", err)
		}
	}
	server.DBWriteChannel <- entry
	return nil
}

// GetListener binds the address and port and wraps the raw listener in the
// protocol mux and the resilient accept loop.
func (server *Server) GetListener(address string, port string) (net.Listener, error) {
	rawListener, err := net.Listen("tcp", fmt.Sprintf("%s:%s", address, port))
	if err != nil {
		return rawListener, fmt.Errorf("setting up listener on address:port %s:%s", address, port)
	}
	muxListener := listener.NewProtocolMuxListener(rawListener, server.TLSConfig)
	parleyListener := listener.NewParleyListener(muxListener)
	server.Addr = address
	server.Port = port
	server.WriteLog("INFO", fmt.Sprintf("Parley Service Started on %s:%s", address, port))
	return parleyListener, nil
}

// Close releases the server's external resources.
func (server *Server) Close() {
	close(server.DBWriteChannel)
	if server.Presence != nil {
		if err := server.Presence.Close(); err != nil {
			log.Print(err)
		}
	}
	if server.Repo != nil {
		if err := server.Repo.Close(); err != nil {
			log.Print(err)
		}
	}
}

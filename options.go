package parley

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"os"
	"path"

	"github.com/parley-chat/parley/blob"
	"github.com/parley-chat/parley/domain"
	"github.com/parley-chat/parley/extensions"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// WithOptions applies a series of configuration functions to the server instance.
// Each option function can modify the server configuration and return an error if it fails.
//
// Parameters:
//   - options: Variadic list of configuration functions
//
// Returns:
//   - error: First error encountered from any option function
func (server *Server) WithOptions(options ...func(*Server) error) error {
	for _, option := range options {
		err := option(server)
		if err != nil {
			return fmt.Errorf("applying option on parley : %w", err)
		}
	}
	return nil
}

// WithConfigDir configures the server to use the specified configuration directory.
// It creates the directory if it doesn't exist and initializes the configuration file using Viper.
//
// Parameters:
//   - appConfigDir: Path to the configuration directory
//
// Returns:
//   - func(*Server) error: Configuration function that sets up the config directory
func WithConfigDir(appConfigDir string) func(*Server) error {
	return func(server *Server) error {
		_, err := os.ReadDir(appConfigDir)
		if err != nil {
			if os.IsNotExist(err) {
				log.Println("[*] creating config dir")
				err := os.MkdirAll(appConfigDir, 0700)
				if err != nil {
					return fmt.Errorf("creating config dir %s: %w", appConfigDir, err)
				}
			} else {
				return fmt.Errorf("checking if directory exists %s: %w", appConfigDir, err)
			}
		}
		// At this point, the directory exists or was created successfully
		server.ConfigDir = appConfigDir

		// VIPER
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(appConfigDir)
		viper.SetDefault("first_run", true)
		viper.SetDefault("default_address", "0.0.0.0")
		viper.SetDefault("default_port", "8000")
		viper.SetDefault("database_file", "parley.db")
		viper.SetDefault("jwt_secret", "")
		viper.SetDefault("access_ttl_minutes", 30)
		viper.SetDefault("refresh_ttl_hours", 168)
		viper.SetDefault("redis_addr", "127.0.0.1:6379")
		viper.SetDefault("redis_db", 0)
		viper.SetDefault("redis_password", "")
		viper.SetDefault("blob_endpoint", "127.0.0.1:9000")
		viper.SetDefault("blob_access_key", "")
		viper.SetDefault("blob_secret_key", "")
		viper.SetDefault("blob_bucket", "parley-avatars")
		viper.SetDefault("blob_base_url", "")
		viper.SetDefault("blob_secure", false)
		err = viper.ReadInConfig()
		if err != nil {
			// need to check if the error is config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				// Config file is not found
				err = viper.SafeWriteConfig()
				if err != nil {
					return fmt.Errorf("writing config file : %w", err)
				}
			} else {
				return fmt.Errorf("reading config file : %w", err)
			}
		}
		if err := viper.Unmarshal(&server.Config); err != nil {
			return fmt.Errorf("unmarshalling config to struct : %w", err)
		}
		server.Config.viper = viper.GetViper()
		server.Config.ConfigDir = appConfigDir

		if server.Config.JWTSecret == "" {
			secret, err := newSecret()
			if err != nil {
				return fmt.Errorf("generating jwt secret : %w", err)
			}
			server.Config.JWTSecret = secret
			viper.Set("jwt_secret", secret)
		}

		// Rewrite entire file from struct
		err = viper.WriteConfig()
		if err != nil {
			return fmt.Errorf("writing config after unmarshalling : %w", err)
		}
		return nil

	}
}

// WithRepo will take the Repository interface and close any previously configured one
func WithRepo(repo Repository) func(*Server) error {
	return func(server *Server) error {
		// First we need to check if there is a repo
		if server.Repo != nil {
			if err := server.Repo.Close(); err != nil {
				return err
			}
			server.Repo = nil
		}
		server.Repo = repo
		return nil
	}
}

// WithPresence wires the session and presence store, normally the
// Redis-backed presence.Client.
func WithPresence(store domain.SessionStore) func(*Server) error {
	return func(server *Server) error {
		server.Presence = store
		return nil
	}
}

// WithBlobStore wires the MinIO-backed avatar store.
func WithBlobStore(store *blob.Store) func(*Server) error {
	return func(server *Server) error {
		server.Blobs = store
		return nil
	}
}

// WithExtension prepares a single extension runtime and adds it to the server.
func WithExtension(runtime *extensions.Runtime, options ...func(*extensions.Runtime) error) func(*Server) error {
	return func(server *Server) error {
		if _, ok := server.GetExtension(runtime.Data.Name); !ok {
			err := runtime.PrepareState(server, options)
			if err != nil {
				return fmt.Errorf("preparing extension %s : %w", runtime.Data.Name, err)
			}
			server.Extensions = append(server.Extensions, runtime)
		}
		return nil
	}
}

// WithExtensions wraps each stored extension in a runtime and prepares it.
// Disabled extensions are still loaded so they can be toggled without a restart.
func WithExtensions(exts []*domain.Extension, options ...func(*extensions.Runtime) error) func(*Server) error {
	return func(server *Server) error {
		server.Extensions = make([]*extensions.Runtime, 0, len(exts))
		for _, ext := range exts {
			runtime := &extensions.Runtime{Data: ext}
			if err := runtime.PrepareState(server, options); err != nil {
				server.WriteLog("ERROR", fmt.Sprintf("preparing extension %s : %s", ext.Name, err.Error()))
				continue
			}
			server.Extensions = append(server.Extensions, runtime)
		}
		return nil
	}
}

// WithLogHandler takes a handler function that will be executed on each Log
func WithLogHandler(handler func(log domain.Log) error) func(*Server) error {
	return func(server *Server) error {
		if server.OnLog != nil {
			return errors.New("server already has a log handler defined")
		}
		server.OnLog = handler
		return nil
	}
}

// WithTLS loads the certificate and key from the config directory when both
// files are present. Without them the server stays on plain HTTP and the mux
// listener passes connections through untouched.
func WithTLS() func(*Server) error {
	return func(server *Server) error {
		certPath := path.Join(server.ConfigDir, certFile)
		keyPath := path.Join(server.ConfigDir, keyFile)

		if _, err := os.Stat(certPath); os.IsNotExist(err) {
			log.Println("[*] no certificate found, serving plain HTTP")
			return nil
		}
		if _, err := os.Stat(keyPath); os.IsNotExist(err) {
			return fmt.Errorf("certificate %s exists but key %s is missing", certPath, keyPath)
		}

		cert, err := tls.LoadX509KeyPair(certPath, keyPath)
		if err != nil {
			return fmt.Errorf("loading cert and key from disk: %w", err)
		}
		server.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
		return nil
	}
}

// WithLogger sets the structured application logger. A nil logger keeps the
// default so callers can pass through an unset configuration value.
func WithLogger(logger *logrus.Logger) func(*Server) error {
	return func(server *Server) error {
		if logger != nil {
			server.Logger = logger
		}
		return nil
	}
}

// WithAddress overrides the configured bind address and port.
func WithAddress(address string, port string) func(*Server) error {
	return func(server *Server) error {
		if address != "" {
			server.Config.Address = address
		}
		if port != "" {
			server.Config.Port = port
		}
		return nil
	}
}

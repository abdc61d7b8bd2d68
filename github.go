package parley

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/parley-chat/parley/domain"
	"github.com/parley-chat/parley/extensions"
)

// GitHubAsset represents an asset attached to a GitHub release.
type GitHubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
	ContentType        string `json:"content_type"`
}

// GitHubRelease represents a GitHub release.
type GitHubRelease struct {
	TagName     string        `json:"tag_name"`
	Name        string        `json:"name"`
	PublishedAt time.Time     `json:"published_at"`
	URL         string        `json:"html_url"`
	Assets      []GitHubAsset `json:"assets"` // Assets attached to the release
}

// ExtensionConfig is the config.yaml an extension repository ships with its
// releases. It describes the extension independently of the Lua source.
type ExtensionConfig struct {
	Name        string `yaml:"name"`
	Author      string `yaml:"author"`
	SourceURL   string `yaml:"source_url"`
	Description string `yaml:"description"`
}

func getAsset(assets []GitHubAsset, name string) (GitHubAsset, error) {
	for _, asset := range assets {
		if name == asset.Name {
			return asset, nil
		}
	}
	return GitHubAsset{}, fmt.Errorf("finding asset with name %s", name)
}

// Get fetches a URL and returns the body as a string.
func Get(url string) (string, error) {
	res, err := http.Get(url)
	if err != nil {
		return "", fmt.Errorf("getting %s : %w", url, err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("reading resp body : %w", err)
	}
	return string(body), nil
}

// ExtractAuthorRepo extracts the author/repo format from a GitHub URL.
func ExtractAuthorRepo(githubURL string) (string, error) {
	parsedURL, err := url.Parse(githubURL)
	if err != nil {
		return "", err
	}

	if parsedURL.Host != "github.com" {
		return "", fmt.Errorf("not a valid GitHub URL")
	}

	parts := strings.Split(strings.Trim(parsedURL.Path, "/"), "/")
	if len(parts) < 2 {
		return "", fmt.Errorf("URL path is not in the expected format")
	}

	return fmt.Sprintf("%s/%s", parts[0], parts[1]), nil
}

// GetConfig fetches and parses a release's config.yaml.
func GetConfig(url string) (cfg ExtensionConfig, err error) {
	body, err := Get(url)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal([]byte(body), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("unmarshalling yaml : %w", err)
	}
	return cfg, nil
}

// GetLatestRelease fetches the newest release of an extension repository
// together with its parsed config.yaml.
func GetLatestRelease(repo string) (release GitHubRelease, config ExtensionConfig, err error) {
	authorRepo, err := ExtractAuthorRepo(repo)
	if err != nil {
		return release, config, fmt.Errorf("parsing author/repo from url %s : %w", repo, err)
	}

	client := &http.Client{
		Timeout: 10 * time.Second,
	}
	req, err := http.NewRequest("GET", fmt.Sprintf("https://api.github.com/repos/%s/releases", authorRepo), nil)
	if err != nil {
		return release, config, fmt.Errorf("creating request : %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := client.Do(req)
	if err != nil {
		return release, config, fmt.Errorf("getting release for %s : %w", repo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return release, config, fmt.Errorf("github api failed with status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return release, config, fmt.Errorf("reading body : %w", err)
	}

	var releases []GitHubRelease
	if err := json.Unmarshal(body, &releases); err != nil {
		return release, config, fmt.Errorf("unmarshalling release: %w", err)
	}
	if len(releases) == 0 {
		return release, config, fmt.Errorf("no releases found for %s", repo)
	}

	release = releases[0]
	cfg, err := getAsset(release.Assets, "config.yaml")
	if err != nil {
		return release, config, fmt.Errorf("no config found for release : %w", err)
	}
	config, err = GetConfig(cfg.BrowserDownloadURL)
	if err != nil {
		return release, config, fmt.Errorf("fetching config from url %s : %w", cfg.BrowserDownloadURL, err)
	}
	return release, config, nil
}

// InstallExtension downloads the latest release of an extension repository,
// stores it, and loads it into the message pipeline. New extensions start
// disabled until toggled on.
func (server *Server) InstallExtension(url string) (*domain.Extension, error) {
	release, config, err := GetLatestRelease(url)
	if err != nil {
		return nil, fmt.Errorf("getting latest release %s : %w", url, err)
	}

	luaAsset, err := getAsset(release.Assets, "extension.lua")
	if err != nil {
		return nil, fmt.Errorf("getting lua asset : %w", err)
	}
	luaCode, err := Get(luaAsset.BrowserDownloadURL)
	if err != nil {
		return nil, fmt.Errorf("getting extension.lua : %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("creating extension id : %w", err)
	}
	ext := &domain.Extension{
		ID:          id,
		Name:        config.Name,
		SourceURL:   config.SourceURL,
		Author:      config.Author,
		LuaContent:  luaCode,
		Description: config.Description,
		Settings:    map[string]any{},
		UpdatedAt:   release.PublishedAt,
	}
	if err := server.Repo.CreateExtension(ext); err != nil {
		return nil, fmt.Errorf("creating extension : %w", err)
	}

	if err := server.WithOptions(WithExtension(&extensions.Runtime{Data: ext})); err != nil {
		return nil, fmt.Errorf("loading extension %s : %w", ext.Name, err)
	}
	return ext, nil
}

// CheckExtensionUpdates reports which installed extensions have a newer
// release than the stored one.
func (server *Server) CheckExtensionUpdates() map[string]bool {
	updates := make(map[string]bool)
	for _, ext := range server.Extensions {
		if ext.Data.SourceURL == "" {
			continue
		}
		release, _, err := GetLatestRelease(ext.Data.SourceURL)
		if err != nil {
			server.WriteLog("WARN", fmt.Sprintf("checking updates for %s : %s", ext.Data.Name, err.Error()))
			continue
		}
		if release.PublishedAt.After(ext.Data.UpdatedAt) {
			updates[ext.Data.Name] = true
		}
	}
	return updates
}

// UpdateExtension replaces an installed extension's Lua source with the
// latest release and reloads its state.
func (server *Server) UpdateExtension(name string) error {
	runtime, found := server.GetExtension(name)
	if !found {
		return fmt.Errorf("extension %s is not installed", name)
	}

	release, _, err := GetLatestRelease(runtime.Data.SourceURL)
	if err != nil {
		return fmt.Errorf("getting latest release : %w", err)
	}

	luaAsset, err := getAsset(release.Assets, "extension.lua")
	if err != nil {
		return fmt.Errorf("getting lua asset : %w", err)
	}
	luaCode, err := Get(luaAsset.BrowserDownloadURL)
	if err != nil {
		return fmt.Errorf("getting extension.lua : %w", err)
	}

	if err := server.Repo.UpdateExtensionLuaCodeByName(name, luaCode); err != nil {
		return fmt.Errorf("updating extension %s : %w", name, err)
	}

	runtime.Data.LuaContent = luaCode
	runtime.Data.UpdatedAt = release.PublishedAt
	if err := runtime.PrepareState(server, nil); err != nil {
		return fmt.Errorf("reloading extension %s : %w", name, err)
	}
	return nil
}

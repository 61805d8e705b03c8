package infra

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// MediaCache handles downloading and caching listing image thumbnails
type MediaCache struct {
	basePath string
	client   *http.Client
}

// NewMediaCache creates a new MediaCache
func NewMediaCache() (*MediaCache, error) {
	path, err := getMediaPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	// Optimize HTTP Transport to prevent connection leaks
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &MediaCache{
		basePath: path,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}, nil
}

// FetchThumbnail downloads the image for a listing if no cached copy exists.
// Returns the local file path on success. Images are resized to 320px wide
// for consistent card display.
func (m *MediaCache) FetchThumbnail(listingID, imageURL string) (string, error) {
	// Security: sanitize the id to prevent path traversal
	safeID := sanitizeID(listingID)
	if safeID == "" {
		return "", fmt.Errorf("invalid listing id: %s", listingID)
	}
	if imageURL == "" {
		return "", fmt.Errorf("no image url for listing %s", listingID)
	}

	fileName := strings.ToLower(safeID) + ".png"
	filePath := filepath.Join(m.basePath, fileName)

	// Check if exists
	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil // Already exists (Cache Hit)
	}

	resp, err := m.client.Get(imageURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	// Decode the image
	srcImg, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	// Resize to 320px wide with high-quality Lanczos filter, keeping aspect
	resizedImg := imaging.Resize(srcImg, 320, 0, imaging.Lanczos)

	// Save the resized image
	if err := imaging.Save(resizedImg, filePath); err != nil {
		return "", fmt.Errorf("failed to save resized image: %w", err)
	}

	return filePath, nil
}

// ThumbnailPath returns the local cache path for a listing's thumbnail.
func (m *MediaCache) ThumbnailPath(listingID string) string {
	return filepath.Join(m.basePath, strings.ToLower(sanitizeID(listingID))+".png")
}

func getMediaPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "AuctionGo", "assets", "media"), nil
}

func sanitizeID(id string) string {
	res := make([]rune, 0, len(id))
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			res = append(res, r)
		}
	}
	return string(res)
}

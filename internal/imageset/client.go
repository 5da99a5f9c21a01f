// Package imageset talks to the internal image service, which stores the
// images referenced by notifications and serves them in several sizes.
package imageset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheTTL = 24 * time.Hour

// ImageSet holds the variant URLs of one uploaded image.
type ImageSet struct {
	ID       int            `json:"id"`
	Variants []ImageVariant `json:"variants"`
}

type ImageVariant struct {
	Image string `json:"image"`
}

// URLSmall returns the smallest variant URL, or "" when absent.
func (s *ImageSet) URLSmall() string { return s.variant(0) }

// URLMedium returns the mid-size variant URL, the one Firebase image
// payloads use.
func (s *ImageSet) URLMedium() string { return s.variant(1) }

// URLLarge returns the largest variant URL, or "" when absent.
func (s *ImageSet) URLLarge() string { return s.variant(2) }

func (s *ImageSet) variant(i int) string {
	if i >= len(s.Variants) {
		return ""
	}
	return s.Variants[i].Image
}

type Client interface {
	Exists(ctx context.Context, imageSetID int) (bool, error)
	Get(ctx context.Context, imageSetID int) (*ImageSet, error)
}

type client struct {
	baseURL string
	http    *http.Client
	cache   *redis.Client
}

// New builds an image service client. cache may be nil, in which case
// every lookup goes to the image service.
func New(baseURL string, cache *redis.Client) Client {
	return &client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
	}
}

func (c *client) Get(ctx context.Context, imageSetID int) (*ImageSet, error) {
	cacheKey := fmt.Sprintf("imageset:detail:%d", imageSetID)
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var set ImageSet
			if err := json.Unmarshal(cached, &set); err == nil {
				return &set, nil
			}
		}
	}

	url := fmt.Sprintf("%s/images/%d", c.baseURL, imageSetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrImageNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image service returned status %d", resp.StatusCode)
	}

	var set ImageSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, err
	}

	if c.cache != nil {
		if body, err := json.Marshal(&set); err == nil {
			if err := c.cache.Set(ctx, cacheKey, body, cacheTTL).Err(); err != nil {
				log.Printf("imageset: cache write failed: %v", err)
			}
		}
	}
	return &set, nil
}

func (c *client) Exists(ctx context.Context, imageSetID int) (bool, error) {
	_, err := c.Get(ctx, imageSetID)
	if errors.Is(err, ErrImageNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

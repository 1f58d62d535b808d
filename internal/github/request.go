package github

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
)

const (
	acceptHeader    = "application/vnd.github+json"
	contentEncoding = "gzip, deflate, br"
)

type Item interface{}

// GetItems makes GET requests to the GitHub API and returns items from
// successive pages until limit items are collected or a short page ends the
// listing.
func (c *Client) GetItems(apiURL string, q url.Values, limit int) ([]Item, error) {
	var items []Item

	if q == nil {
		q = url.Values{}
	}
	q.Set("per_page", perPage)

	page := 1
	for {
		q.Set("page", strconv.Itoa(page))

		req, err := http.NewRequestWithContext(c.ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}

		req = c.setHeaders(req)
		req.URL.RawQuery = q.Encode()

		var pageItems []Item
		if err := c.doJSON(req, &pageItems); err != nil {
			return nil, err
		}

		c.logger.Debug("got response from GitHub",
			zap.Int("page", page),
			zap.Int("items", len(pageItems)),
		)

		items = append(items, pageItems...)

		if limit > 0 && len(items) >= limit {
			return items[:limit], nil
		}

		if len(pageItems) < 100 {
			return items, nil
		}

		page++
	}
}

func (c *Client) getJSON(apiURL string, q url.Values, target interface{}) error {
	req, err := http.NewRequestWithContext(c.ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	return c.doJSON(req, target)
}

func (c *Client) doJSON(req *http.Request, target interface{}) error {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return err
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

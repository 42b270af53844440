package catalog

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"
	"github.com/unrealsaint/lucera2missionparser/reward"
)

// LoadMarkup reads a markup file into a new Catalog.
func LoadMarkup(path string) (*Catalog, error) {
	c := New()
	if _, err := c.LoadMarkupFile(path); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadMarkupFile adds every record of a markup file, overwriting equal ids.
// On error the catalog is left unchanged.
func (c *Catalog) LoadMarkupFile(path string) (int, error) {
	rewards, err := readFile(path, reward.ParseMarkup)
	if err != nil {
		return 0, err
	}
	c.PutAll(rewards)
	return len(rewards), nil
}

// LoadFlatTextFile applies a flat-text file as an overlay.
// On error the catalog is left unchanged.
func (c *Catalog) LoadFlatTextFile(path string) (OverlayResult, error) {
	fragments, err := readFile(path, reward.ParseFlatText)
	if err != nil {
		return OverlayResult{}, err
	}
	return c.ApplyFlatOverlay(fragments), nil
}

// SaveMarkupFile writes the catalog as markup, replacing path atomically.
func (c *Catalog) SaveMarkupFile(path string) error {
	return c.saveFile(path, reward.FormatMarkup)
}

// SaveFlatTextFile writes the catalog as flat text, replacing path atomically.
func (c *Catalog) SaveFlatTextFile(path string) error {
	return c.saveFile(path, reward.FormatFlat)
}

// Render serializes the catalog in iteration order.
func (c *Catalog) Render(format reward.Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes the catalog to w in the given format.
func (c *Catalog) Encode(w io.Writer, format reward.Format) error {
	switch format {
	case reward.FormatMarkup:
		return reward.WriteMarkup(w, c.Rewards())
	case reward.FormatFlat:
		return reward.WriteFlatText(w, c.Rewards())
	}
	return fmt.Errorf("catalog: unknown format %q", format)
}

// Decode parses a document in the given format without touching any catalog.
func Decode(r io.Reader, format reward.Format) ([]*reward.Reward, error) {
	switch format {
	case reward.FormatMarkup:
		return reward.ParseMarkup(r)
	case reward.FormatFlat:
		return reward.ParseFlatText(r)
	}
	return nil, fmt.Errorf("catalog: unknown format %q", format)
}

func (c *Catalog) saveFile(path string, format reward.Format) error {
	data, err := c.Render(format)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: write %s: %v", reward.ErrIO, path, err)
	}
	return nil
}

// ReadFile parses a file in the given format without touching any catalog.
func ReadFile(path string, format reward.Format) ([]*reward.Reward, error) {
	switch format {
	case reward.FormatMarkup:
		return readFile(path, reward.ParseMarkup)
	case reward.FormatFlat:
		return readFile(path, reward.ParseFlatText)
	}
	return nil, fmt.Errorf("catalog: unknown format %q", format)
}

func readFile(path string, parse func(io.Reader) ([]*reward.Reward, error)) ([]*reward.Reward, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", reward.ErrIO, path, err)
	}
	defer f.Close()
	rewards, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("catalog: load %s: %w", path, err)
	}
	return rewards, nil
}

package volren

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/jpeg"
)

const jpegDataURLPrefix = "data:image/jpeg;base64,"

// Base64 reads the framebuffer back and returns it as a JPEG data URL.
func (c *Core) Base64() (string, error) {
	if !c.threeD() {
		return "", ErrNotInitialized
	}
	img, err := c.backend.ReadPixels()
	if err != nil {
		return "", fmt.Errorf("read pixels: %w", err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 92}); err != nil {
		return "", err
	}
	return jpegDataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

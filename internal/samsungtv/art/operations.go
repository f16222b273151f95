package art

import (
	"context"
	"fmt"
)

// GetArtMode reports whether art mode is on.
func (c *Client) GetArtMode(ctx context.Context) (bool, bool) {
	data, err := c.request(ctx, RequestGetArtMode, nil)
	if err == nil {
		if v, ok := stringValue(data["value"]); ok {
			return v == "on", true
		}
		err = fmt.Errorf("%w: value", ErrMissingValue)
	}
	c.logFailure(RequestGetArtMode, err)
	return false, false
}

// SetArtMode turns art mode on or off.
func (c *Client) SetArtMode(ctx context.Context, on bool) bool {
	value := "off"
	if on {
		value = "on"
	}
	if err := c.send(ctx, RequestSetArtMode, map[string]any{"value": value}); err != nil {
		c.logFailure(RequestSetArtMode, err)
		return false
	}
	return true
}

// GetBrightness returns the art mode brightness in percent. The TV reports
// 0..10; a missing or unparseable value yields no result rather than 0.
func (c *Client) GetBrightness(ctx context.Context) (int, bool) {
	data, err := c.request(ctx, RequestGetBrightness, nil)
	if err == nil {
		if v, ok := intValue(data["value"]); ok {
			return clamp(v*brightnessScale, MinBrightness, MaxBrightness), true
		}
		err = fmt.Errorf("%w: value", ErrMissingValue)
	}
	c.logFailure(RequestGetBrightness, err)
	return 0, false
}

// SetBrightness sets brightness from a percentage, clamped to 0..100 and
// rounded to the TV's 0..10 steps.
func (c *Client) SetBrightness(ctx context.Context, percent int) bool {
	level := (clamp(percent, MinBrightness, MaxBrightness) + brightnessScale/2) / brightnessScale
	if err := c.send(ctx, RequestSetBrightness, map[string]any{"value": level}); err != nil {
		c.logFailure(RequestSetBrightness, err)
		return false
	}
	return true
}

// GetColorTemperature returns the colour temperature offset, -5..5.
func (c *Client) GetColorTemperature(ctx context.Context) (int, bool) {
	data, err := c.request(ctx, RequestGetColorTemperature, nil)
	if err == nil {
		if v, ok := intValue(data["value"]); ok {
			return clamp(v, MinColorTemperature, MaxColorTemperature), true
		}
		err = fmt.Errorf("%w: value", ErrMissingValue)
	}
	c.logFailure(RequestGetColorTemperature, err)
	return 0, false
}

// SetColorTemperature sets the colour temperature offset, clamped to -5..5.
func (c *Client) SetColorTemperature(ctx context.Context, value int) bool {
	v := clamp(value, MinColorTemperature, MaxColorTemperature)
	if err := c.send(ctx, RequestSetColorTemperature, map[string]any{"value": v}); err != nil {
		c.logFailure(RequestSetColorTemperature, err)
		return false
	}
	return true
}

// GetSlideshowStatus returns the slideshow (auto rotation) settings.
func (c *Client) GetSlideshowStatus(ctx context.Context) (SlideshowStatus, bool) {
	data, err := c.request(ctx, RequestGetSlideshowStatus, nil)
	if err == nil {
		if v, ok := stringValue(data["value"]); ok {
			status := SlideshowStatus{Value: v}
			status.CategoryID, _ = stringValue(data["category_id"])
			status.Type, _ = stringValue(data["type"])
			return status, true
		}
		err = fmt.Errorf("%w: value", ErrMissingValue)
	}
	c.logFailure(RequestGetSlideshowStatus, err)
	return SlideshowStatus{}, false
}

// GetCurrentArtwork returns the artwork on screen.
func (c *Client) GetCurrentArtwork(ctx context.Context) (Artwork, bool) {
	data, err := c.request(ctx, RequestGetCurrentArtwork, nil)
	if err == nil {
		if id, ok := stringValue(data["content_id"]); ok {
			art := Artwork{ContentID: id}
			art.CategoryID, _ = stringValue(data["category_id"])
			art.MatteID, _ = stringValue(data["matte_id"])
			return art, true
		}
		err = fmt.Errorf("%w: content_id", ErrMissingValue)
	}
	c.logFailure(RequestGetCurrentArtwork, err)
	return Artwork{}, false
}

// GetAPIVersion returns the art service API version.
func (c *Client) GetAPIVersion(ctx context.Context) (string, bool) {
	data, err := c.request(ctx, RequestGetAPIVersion, nil)
	if err == nil {
		for _, key := range []string{"version", "value"} {
			if v, ok := stringValue(data[key]); ok {
				return v, true
			}
		}
		err = fmt.Errorf("%w: version", ErrMissingValue)
	}
	c.logFailure(RequestGetAPIVersion, err)
	return "", false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementTV is the measurement polled TV values are written to.
const MeasurementTV = "frame_tv"

// TVSample is one poll of a TV. Nil pointers are values the TV did not
// report and are left out of the point.
type TVSample struct {
	TVID             string
	Available        bool
	ArtMode          *bool
	Brightness       *int
	ColorTemperature *int
}

// NewTVPoint builds the frame_tv point for a sample, tagged by tv_id.
func NewTVPoint(s TVSample, ts time.Time) *write.Point {
	fields := map[string]any{
		"available": s.Available,
	}
	if s.ArtMode != nil {
		fields["art_mode"] = *s.ArtMode
	}
	if s.Brightness != nil {
		fields["brightness"] = *s.Brightness
	}
	if s.ColorTemperature != nil {
		fields["color_temperature"] = *s.ColorTemperature
	}

	return write.NewPoint(MeasurementTV, map[string]string{"tv_id": s.TVID}, fields, ts)
}

// WriteTVSample queues a sample for the next batch.
//
// Example:
//
//	on := true
//	client.WriteTVSample(influxdb.TVSample{TVID: "frame", Available: true, ArtMode: &on})
func (c *Client) WriteTVSample(s TVSample) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(NewTVPoint(s, time.Now()))
}

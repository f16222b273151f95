// Package influxdb writes Frame TV telemetry to InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Each poll of the
// TV becomes one point in the frame_tv measurement, tagged by tv_id,
// with available, art_mode, brightness and color_temperature fields.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteTVSample(influxdb.TVSample{TVID: "frame", Available: true})
//
// Writes are non-blocking and batched according to batch_size and
// flush_interval. Connection and health check errors are returned directly.
package influxdb

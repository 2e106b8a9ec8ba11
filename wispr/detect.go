package wispr

import (
	"context"
	"fmt"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// Detection describes what a probe found.
type Detection struct {
	// Found is set when a WISPr gateway answered the probe.
	Found bool
	// Online is set when the probe reached its real destination.
	Online bool

	LocationName    string
	VersionLow      string
	VersionHigh     string
	AccessProcedure string
}

// Versions formats the WISPr versions the gateway supports.
func (d Detection) Versions() string {
	if d.VersionHigh != "" {
		return fmt.Sprintf("%s to %s", d.VersionLow, d.VersionHigh)
	}
	return d.AccessProcedure
}

// Detect probes the network for a WISPr gateway. Missing informational
// fields are reported as empty strings.
func (c *Client) Detect(ctx context.Context) (Detection, error) {
	logger := log.With(c.logger, "stage", "probe")
	resp, err := c.probe(ctx, logger)
	if err != nil {
		return Detection{}, err
	}
	if !HasMarker(resp.Body) {
		d := Detection{Online: c.online(resp)}
		if d.Online {
			level.Info(logger).Log("msg", "already online, no WISPr detection possible")
		} else {
			level.Info(logger).Log("msg", "no WISPr gateway found")
		}
		return d, nil
	}
	f := c.fields(logger, resp)
	d := Detection{
		Found:           true,
		LocationName:    f["LocationName"],
		VersionLow:      f["VersionLow"],
		VersionHigh:     f["VersionHigh"],
		AccessProcedure: f["AccessProcedure"],
	}
	level.Info(logger).Log("msg", "WISPr gateway found", "location", d.LocationName, "versions", d.Versions())
	return d, nil
}

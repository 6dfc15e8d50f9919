package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ristryder/pgsplay/bluraysup"
	"github.com/ristryder/pgsplay/common"
)

// parsePosition accepts a Go duration ("1m30s") or plain seconds ("90.5").
func parsePosition(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}

	if duration, durationErr := time.ParseDuration(value); durationErr == nil {
		return duration, nil
	}

	seconds, secondsErr := strconv.ParseFloat(value, 64)
	if secondsErr != nil {
		return 0, errors.Newf("invalid position %q, use seconds or a duration like 1m30s", value)
	}

	return bluraysup.SecondsToDuration(seconds), nil
}

// parseSize reads WIDTHxHEIGHT.
func parseSize(value string) (common.Size, error) {
	var size common.Size
	if value == "" {
		return size, nil
	}

	if _, scanErr := fmt.Sscanf(strings.ToLower(value), "%dx%d", &size.Width, &size.Height); scanErr != nil {
		return size, errors.Wrapf(scanErr, "invalid size %q, use WIDTHxHEIGHT", value)
	}
	if size.Width < 0 || size.Height < 0 {
		return size, errors.Newf("invalid size %q", value)
	}

	return size, nil
}

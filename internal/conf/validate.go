package conf

import (
	"errors"
	"fmt"
)

// ValidateSettings checks the loaded settings for values the service cannot
// run with. Validation failures abort startup rather than surfacing later as
// confusing runtime errors.
func ValidateSettings(settings *Settings) error {
	var errs []error

	if settings.Detector.Threshold < 0 || settings.Detector.Threshold > 1 {
		errs = append(errs, fmt.Errorf("detector.threshold must be within [0, 1], got %v", settings.Detector.Threshold))
	}
	if settings.Detector.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("detector.timeout must be positive, got %v", settings.Detector.Timeout))
	}
	if settings.Sampler.PerSecond < 1 {
		errs = append(errs, fmt.Errorf("sampler.persecond must be at least 1, got %d", settings.Sampler.PerSecond))
	}
	if settings.Store.SQLite.Enabled && settings.Store.MySQL.Enabled {
		errs = append(errs, errors.New("store.sqlite and store.mysql cannot both be enabled"))
	}
	if !settings.Store.SQLite.Enabled && !settings.Store.MySQL.Enabled {
		errs = append(errs, errors.New("no record store backend enabled"))
	}
	if settings.Server.IngestWorkers < 1 {
		errs = append(errs, fmt.Errorf("server.ingestworkers must be at least 1, got %d", settings.Server.IngestWorkers))
	}

	return errors.Join(errs...)
}

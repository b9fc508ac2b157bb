package db

import (
	"github.com/pkg/errors"

	"github.com/ramify-app/ramify/internal/profile"
	"github.com/ramify-app/ramify/store"
	"github.com/ramify-app/ramify/store/db/jsonfile"
)

// NewDriver creates the storage driver named by the profile. Boards are
// plain JSON documents on disk; there is no database server involved.
func NewDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "jsonfile":
		driver, err := jsonfile.NewDriver(profile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create jsonfile driver")
		}
		return driver, nil
	default:
		return nil, errors.Errorf("unknown storage driver %q: only 'jsonfile' is supported", profile.Driver)
	}
}

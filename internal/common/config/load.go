package config

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadConfig merges the given config files (in order, later files win) into v and unmarshals the result, including
// any flags or defaults already registered with v, into config.
func LoadConfig(v *viper.Viper, config interface{}, userSpecifiedConfigs []string) error {
	for _, path := range userSpecifiedConfigs {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return errors.Wrapf(err, "error reading config file %s", path)
		}
		log.Infof("Read config from %s", path)
	}
	if err := v.Unmarshal(config, CustomHooks...); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

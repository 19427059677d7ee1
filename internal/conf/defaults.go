// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("main.name", "BirdTag")
	viper.SetDefault("main.debug", false)
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "birdtag.log")

	viper.SetDefault("detector.endpoint", "http://localhost:9090/detect")
	viper.SetDefault("detector.timeout", 30*time.Second)
	viper.SetDefault("detector.threshold", 0.5)

	viper.SetDefault("sampler.persecond", 2)

	viper.SetDefault("store.sqlite.enabled", true)
	viper.SetDefault("store.sqlite.path", "birdtag.db")
	viper.SetDefault("store.mysql.enabled", false)
	viper.SetDefault("store.mysql.username", "birdtag")
	viper.SetDefault("store.mysql.database", "birdtag")
	viper.SetDefault("store.mysql.host", "localhost")
	viper.SetDefault("store.mysql.port", "3306")

	viper.SetDefault("notify.debug", false)
	viper.SetDefault("notify.mqtt.enabled", false)
	viper.SetDefault("notify.mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("notify.mqtt.topic", "birdtag/notifications")
	viper.SetDefault("notify.shoutrrr.enabled", false)
	viper.SetDefault("notify.shoutrrr.urls", []string{})

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.cachettl", time.Minute)
	viper.SetDefault("server.ingestworkers", 4)

	viper.SetDefault("objectstore.root", "media/")
	viper.SetDefault("objectstore.baseurl", "http://localhost:8080/media")
}

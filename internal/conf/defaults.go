// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "RiceNet-Go")
	viper.SetDefault("main.timeas24h", true)
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "ricenet.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)
	viper.SetDefault("main.log.rotationday", time.Sunday)

	viper.SetDefault("ricenet.modelpath", "")
	viper.SetDefault("ricenet.threads", 0)
	viper.SetDefault("ricenet.usexnnpack", true)
	viper.SetDefault("ricenet.ricetype", "white")
	viper.SetDefault("ricenet.latitude", 0.000)
	viper.SetDefault("ricenet.longitude", 0.000)

	viper.SetDefault("quality.milling.premium", 5.0)
	viper.SetDefault("quality.milling.grade1", 10.0)
	viper.SetDefault("quality.milling.grade2", 15.0)
	viper.SetDefault("quality.milling.grade3", 20.0)
	viper.SetDefault("quality.shape.bold", 2.1)
	viper.SetDefault("quality.shape.medium", 2.9)
	viper.SetDefault("quality.chalkiness", 20.0)
	viper.SetDefault("quality.defect.warning", 5.0)
	viper.SetDefault("quality.defect.caution", 10.0)
	viper.SetDefault("quality.defect.critical", 20.0)

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")

	viper.SetDefault("webserver.log.enabled", false)
	viper.SetDefault("webserver.log.path", "webui.log")
	viper.SetDefault("webserver.log.rotation", RotationDaily)
	viper.SetDefault("webserver.log.maxsize", 1048576)
	viper.SetDefault("webserver.log.rotationday", time.Sunday)

	viper.SetDefault("output.file.enabled", true)
	viper.SetDefault("output.file.path", "output/")
	viper.SetDefault("output.file.type", "table")

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "ricenet.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "ricenet")
	viper.SetDefault("output.mysql.password", "secret")
	viper.SetDefault("output.mysql.database", "ricenet")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", 3306)

	viper.SetDefault("retention.maxscans", 100)

	viper.SetDefault("export.prefix", "rice_quality_export")

	viper.SetDefault("backup.enabled", false)
	viper.SetDefault("backup.interval", "24h")
	viper.SetDefault("backup.retention.maxage", "90d")
	viper.SetDefault("backup.retention.maxbackups", 7)
	viper.SetDefault("backup.retention.minbackups", 2)

	viper.SetDefault("notify.enabled", false)
	viper.SetDefault("notify.minseverity", "high")
	viper.SetDefault("notify.onbelowgrade", true)
	viper.SetDefault("notify.urls", []string{})
}

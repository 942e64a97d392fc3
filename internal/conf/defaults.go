// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Default values shared with other packages.
const (
	DefaultArtifactPath  = "plant_disease_model.zip"
	DefaultImageSize     = 224
	DefaultMaxUploadSize = 10 << 20
)

// setDefaultConfig sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("main.name", "leafscan")
	v.SetDefault("main.log.level", "info")
	v.SetDefault("main.log.timezone", "Local")
	v.SetDefault("main.log.console.enabled", true)
	v.SetDefault("main.log.console.level", "info")
	v.SetDefault("main.log.file.enabled", false)
	v.SetDefault("main.log.file.path", "logs/leafscan.log")
	v.SetDefault("main.log.file.level", "info")
	v.SetDefault("main.log.modulelevels", map[string]string{})

	v.SetDefault("model.path", DefaultArtifactPath)
	v.SetDefault("model.topk", 3)

	v.SetDefault("backbone.runtime", "tflite")
	v.SetDefault("backbone.path", "models/mobilenet_v2_feature_vector.tflite")
	v.SetDefault("backbone.inputname", "input")
	v.SetDefault("backbone.outputname", "output")
	v.SetDefault("backbone.featuresize", 0)
	v.SetDefault("backbone.threads", 0)
	v.SetDefault("backbone.usexnnpack", true)
	v.SetDefault("backbone.onnxlibrary", "")

	v.SetDefault("train.traindir", "PlantVillage/train")
	v.SetDefault("train.valdir", "PlantVillage/val")
	v.SetDefault("train.imagesize", DefaultImageSize)
	v.SetDefault("train.batchsize", 32)
	v.SetDefault("train.epochs", 10)
	v.SetDefault("train.learningrate", 0.0001)
	v.SetDefault("train.hiddenunits", 256)
	v.SetDefault("train.dropout", 0.5)
	v.SetDefault("train.seed", 42)
	v.SetDefault("train.workers", 0)
	v.SetDefault("train.augment.enabled", true)
	v.SetDefault("train.augment.rotation", 25.0)
	v.SetDefault("train.augment.zoom", 0.2)
	v.SetDefault("train.augment.horizontalflip", true)
	v.SetDefault("train.plotpath", "training_curves.png")
	v.SetDefault("train.historypath", "training_history.csv")

	v.SetDefault("predict.image", "test_leaf.jpg")
	v.SetDefault("predict.classesdir", "")
	v.SetDefault("predict.top", 0)
	v.SetDefault("predict.format", "table")

	v.SetDefault("remedies.path", "")

	v.SetDefault("webserver.enabled", true)
	v.SetDefault("webserver.listen", ":8501")
	v.SetDefault("webserver.maxuploadsize", DefaultMaxUploadSize)
	v.SetDefault("webserver.readtimeout", 30*time.Second)
	v.SetDefault("webserver.writetimeout", 60*time.Second)
	v.SetDefault("webserver.shutdowntimeout", 10*time.Second)
	v.SetDefault("webserver.cache.enabled", true)
	v.SetDefault("webserver.cache.ttl", 10*time.Minute)
	v.SetDefault("webserver.ratelimit.enabled", true)
	v.SetDefault("webserver.ratelimit.rate", 5.0)
	v.SetDefault("webserver.ratelimit.burst", 10)

	v.SetDefault("output.sqlite.enabled", false)
	v.SetDefault("output.sqlite.path", "leafscan.db")

	v.SetDefault("output.mysql.enabled", false)
	v.SetDefault("output.mysql.username", "leafscan")
	v.SetDefault("output.mysql.password", "secret")
	v.SetDefault("output.mysql.database", "leafscan")
	v.SetDefault("output.mysql.host", "localhost")
	v.SetDefault("output.mysql.port", "3306")

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
	v.SetDefault("sentry.debug", false)
}

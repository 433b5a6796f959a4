package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	DefaultPort       = 3600
	DefaultConfigPath = "config/config.yml"

	defaultPass1 = "-i $INPUT -vf scale=1280x720 -b:v 1024k -minrate 512k -maxrate 1485k -tile-columns 2 -g 240 -quality good -crf 32 -c:v libvpx-vp9 -speed 4 -map_metadata -1 -pass 1 -an -f null /dev/null"
	defaultPass2 = "-i $INPUT -vf scale=1280x720 -b:v 1024k -minrate 512k -maxrate 1485k -tile-columns 2 -g 240 -quality good -crf 32 -c:v libvpx-vp9 -speed 4 -map_metadata -1 -pass 2 -c:a libopus -y $OUTPUT"
)

type Orientation string

const (
	OrientationAny       Orientation = ""
	OrientationLandscape Orientation = "landscape"
	OrientationPortrait  Orientation = "portrait"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logger  Logger        `mapstructure:"logger"`
	Jobs    JobsConfig    `mapstructure:"jobs"`
	Policy  PolicyConfig  `mapstructure:"policy"`
	Encoder EncoderConfig `mapstructure:"encoder"`
	Worker  WorkerConfig  `mapstructure:"worker"`
	Redis   RedisConfig   `mapstructure:"redis"`
	S3      S3Config      `mapstructure:"s3"`
}

type ServerConfig struct {
	AppVersion      string        `mapstructure:"app_version"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Logger struct {
	Development       bool   `mapstructure:"development"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	Encoding          string `mapstructure:"encoding"`
	Level             string `mapstructure:"level"`
}

// JobsConfig describes where artifacts live and how long finished jobs are kept.
type JobsConfig struct {
	WorkDir   string        `mapstructure:"work_dir"`
	OutputExt string        `mapstructure:"output_ext"`
	QueueSize int           `mapstructure:"queue_size"`
	Retention time.Duration `mapstructure:"retention"`
}

// PolicyConfig holds the acceptance rules applied to probed videos.
// A zero MaxDuration disables the length check.
type PolicyConfig struct {
	MaxDuration time.Duration `mapstructure:"max_duration"`
	Orientation Orientation   `mapstructure:"orientation"`
}

// EncoderConfig holds the argument templates for the encode passes.
// An empty Pass2 means the pipeline is a single pass.
type EncoderConfig struct {
	Binary      string `mapstructure:"binary"`
	Pass1       string `mapstructure:"pass1"`
	Pass2       string `mapstructure:"pass2"`
	ProbeBinary string `mapstructure:"probe_binary"`
}

type WorkerConfig struct {
	MaxCPUUsage      float64       `mapstructure:"max_cpu_usage"`
	CPUCheckInterval time.Duration `mapstructure:"cpu_check_interval"`
}

type RedisConfig struct {
	Addr          string `mapstructure:"addr"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	TLS           bool   `mapstructure:"tls"`
	MinIdleConns  int    `mapstructure:"min_idle_conns"`
	PoolSize      int    `mapstructure:"pool_size"`
	PoolTimeout   int    `mapstructure:"pool_timeout"`
	EventsChannel string `mapstructure:"events_channel"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// Enabled reports whether enough is configured to build an S3 client.
func (s S3Config) Enabled() bool {
	return s.Region != ""
}

// Enabled reports whether job events should be published to redis.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.app_version", "1.0.0")
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.mode", "production")
	v.SetDefault("server.read_timeout", 0)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("logger.development", false)
	v.SetDefault("logger.disable_caller", false)
	v.SetDefault("logger.disable_stacktrace", true)
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.level", "info")

	v.SetDefault("jobs.work_dir", "data")
	v.SetDefault("jobs.output_ext", "webm")
	v.SetDefault("jobs.queue_size", 1024*50)
	v.SetDefault("jobs.retention", time.Hour)

	v.SetDefault("policy.max_duration", 2*time.Minute)
	v.SetDefault("policy.orientation", string(OrientationLandscape))

	v.SetDefault("encoder.binary", "ffmpeg")
	v.SetDefault("encoder.pass1", defaultPass1)
	v.SetDefault("encoder.pass2", defaultPass2)
	v.SetDefault("encoder.probe_binary", "ffprobe")

	v.SetDefault("worker.max_cpu_usage", 0)
	v.SetDefault("worker.cpu_check_interval", 10*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.pool_timeout", 5)
	v.SetDefault("redis.events_channel", "ffserve:job_events")
}

// LoadConfig reads filename when it exists. A missing file is not an error:
// the compiled-in defaults and the environment are used instead.
func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", "PORT"); err != nil {
		return nil, errors.Wrap(err, "bind PORT")
	}

	if filename == "" {
		return v, nil
	}
	if _, err := os.Stat(filename); err != nil {
		if os.IsNotExist(err) {
			return v, nil
		}
		return nil, errors.Wrapf(err, "stat config file %s", filename)
	}

	v.SetConfigFile(filename)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config file %s", filename)
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	if _, err := strconv.Atoi(strings.TrimSpace(v.GetString("server.port"))); err != nil {
		v.Set("server.port", DefaultPort)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	// PORT that is not a valid port falls back to the default, like an unset one.
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		c.Server.Port = DefaultPort
	}
	c.Policy.Orientation = Orientation(strings.ToLower(strings.TrimSpace(string(c.Policy.Orientation))))
	c.Encoder.Pass2 = strings.TrimSpace(c.Encoder.Pass2)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Encoder.Pass1) == "" {
		return errors.New("encoder.pass1 must not be empty")
	}
	switch c.Policy.Orientation {
	case OrientationAny, OrientationLandscape, OrientationPortrait:
	default:
		return fmt.Errorf("policy.orientation: unknown orientation %q", c.Policy.Orientation)
	}
	if c.Policy.MaxDuration < 0 {
		return errors.New("policy.max_duration must not be negative")
	}
	if c.Jobs.QueueSize <= 0 {
		return errors.New("jobs.queue_size must be positive")
	}
	if c.Jobs.Retention <= 0 {
		return errors.New("jobs.retention must be positive")
	}
	if c.Jobs.WorkDir == "" {
		return errors.New("jobs.work_dir must not be empty")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Server.Port)
}

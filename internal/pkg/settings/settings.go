package settings

import (
	"strings"
	"time"

	"github.com/airenas/asrjobs/internal/pkg/gate"
	"github.com/airenas/asrjobs/internal/pkg/utils"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	defaultUsername   = "admin"
	defaultPassword   = "admin"
	defaultSigningKey = "0123456789abcdefghijklmnopqrstuvwyz"
)

var algorithms = map[string]bool{"HS256": true, "HS384": true, "HS512": true}

// env names kept for compatibility with older deployments
var legacyEnv = map[string]string{
	"project.name":            "PROJECT_NAME",
	"project.version":         "VERSION",
	"project.description":     "DESCRIPTION",
	"api.prefix":              "API_PREFIX",
	"debug":                   "DEBUG",
	"auth.username":           "USERNAME",
	"auth.password":           "PASSWORD",
	"auth.signingKey":         "OPENSSL_KEY",
	"auth.algorithm":          "OPENSSL_ALGORITHM",
	"auth.tokenExpireMinutes": "ACCESS_TOKEN_EXPIRE_MINUTES",
	"aws.accessKeyID":         "AWS_ACCESS_KEY_ID",
	"aws.secretAccessKey":     "AWS_SECRET_ACCESS_KEY",
	"aws.bucket":              "AWS_STORAGE_BUCKET_NAME",
	"aws.region":              "AWS_REGION_NAME",
	"svix.apiKey":             "SVIX_API_KEY",
	"svix.appID":              "SVIX_APP_ID",
}

//Auth keeps the admin credentials settings
type Auth struct {
	Username           string
	Password           string
	SigningKey         string
	Algorithm          string
	TokenExpireMinutes int
}

//AWS keeps the object storage settings
type AWS struct {
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	Endpoint        string
}

//Svix keeps the event bus settings
type Svix struct {
	URL           string
	APIKey        string
	AppID         string
	Product       string
	RetentionDays int
	Retries       int
}

//Settings is the validated application configuration
type Settings struct {
	ProjectName string
	Version     string
	Description string
	APIPrefix   string
	Debug       bool
	Port        int

	Auth Auth
	AWS  AWS
	Svix Svix

	MaxConcurrent  int
	StorageType    string
	StoragePath    string
	StorageRetries int

	TranscriberURL  string
	WarmupTimeout   time.Duration
	DownloadRetries int
	MaxAudioSize    int64
	MongoURL        string
}

//Storage types
const (
	StorageNone  = ""
	StorageS3    = "s3"
	StorageLocal = "local"
)

//Load reads the settings from v, version is used when no version is configured
func Load(v *viper.Viper, version string) (*Settings, error) {
	setDefaults(v, version)
	for k, env := range legacyEnv {
		if err := v.BindEnv(k, envName(k), env); err != nil {
			return nil, errors.Wrapf(err, "can't bind %s", env)
		}
	}
	res := &Settings{
		ProjectName: v.GetString("project.name"),
		Version:     v.GetString("project.version"),
		Description: v.GetString("project.description"),
		APIPrefix:   v.GetString("api.prefix"),
		Debug:       v.GetBool("debug"),
		Port:        v.GetInt("port"),
		Auth: Auth{
			Username:           v.GetString("auth.username"),
			Password:           v.GetString("auth.password"),
			SigningKey:         v.GetString("auth.signingKey"),
			Algorithm:          v.GetString("auth.algorithm"),
			TokenExpireMinutes: v.GetInt("auth.tokenExpireMinutes"),
		},
		AWS: AWS{
			AccessKeyID:     v.GetString("aws.accessKeyID"),
			SecretAccessKey: v.GetString("aws.secretAccessKey"),
			Bucket:          v.GetString("aws.bucket"),
			Region:          v.GetString("aws.region"),
			Endpoint:        v.GetString("aws.endpoint"),
		},
		Svix: Svix{
			URL:           v.GetString("svix.url"),
			APIKey:        v.GetString("svix.apiKey"),
			AppID:         v.GetString("svix.appID"),
			Product:       v.GetString("svix.product"),
			RetentionDays: v.GetInt("svix.retentionDays"),
			Retries:       v.GetInt("svix.retries"),
		},
		MaxConcurrent:   v.GetInt("jobs.maxConcurrent"),
		StorageType:     strings.ToLower(strings.TrimSpace(v.GetString("storage.type"))),
		StoragePath:     v.GetString("storage.path"),
		StorageRetries:  v.GetInt("storage.retries"),
		TranscriberURL:  v.GetString("transcriber.url"),
		WarmupTimeout:   v.GetDuration("transcriber.warmupTimeout"),
		DownloadRetries: v.GetInt("transcriber.downloadRetries"),
		MaxAudioSize:    v.GetInt64("transcriber.maxAudioSize"),
		MongoURL:        v.GetString("mongo.url"),
	}
	if res.StorageType == StorageNone && res.AWS.Bucket != "" {
		res.StorageType = StorageS3
	}
	return res, res.Validate()
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func setDefaults(v *viper.Viper, version string) {
	v.SetDefault("project.name", "ASR jobs")
	v.SetDefault("project.version", version)
	v.SetDefault("project.description", "Transcription job service.")
	v.SetDefault("api.prefix", "/api/v1")
	v.SetDefault("debug", true)
	v.SetDefault("port", 8000)
	v.SetDefault("auth.username", defaultUsername)
	v.SetDefault("auth.password", defaultPassword)
	v.SetDefault("auth.signingKey", defaultSigningKey)
	v.SetDefault("auth.algorithm", "HS256")
	v.SetDefault("auth.tokenExpireMinutes", 30)
	v.SetDefault("svix.product", "asr_jobs")
	v.SetDefault("svix.retentionDays", 5)
	v.SetDefault("jobs.maxConcurrent", gate.DefaultCapacity)
	v.SetDefault("storage.retries", 3)
	v.SetDefault("transcriber.warmupTimeout", 5*time.Minute)
	v.SetDefault("transcriber.downloadRetries", 3)
}

//Validate checks the settings, the first problem found is returned
func (s *Settings) Validate() error {
	for _, r := range []struct{ name, value string }{{"project name", s.ProjectName},
		{"version", s.Version}, {"description", s.Description}, {"api prefix", s.APIPrefix}} {
		if strings.TrimSpace(r.value) == "" {
			return errors.Errorf("no %s", r.name)
		}
	}
	if !strings.HasPrefix(s.APIPrefix, "/") {
		return errors.Errorf("api prefix must start with '/', got '%s'", s.APIPrefix)
	}
	if !algorithms[s.Auth.Algorithm] {
		return errors.Errorf("unsupported algorithm '%s', expected one of HS256, HS384, HS512", s.Auth.Algorithm)
	}
	if s.Auth.TokenExpireMinutes <= 0 {
		return errors.Errorf("token expire minutes must be > 0, got %d", s.Auth.TokenExpireMinutes)
	}
	if s.MaxConcurrent < 1 {
		return errors.Errorf("jobs.maxConcurrent must be >= 1, got %d", s.MaxConcurrent)
	}
	switch s.StorageType {
	case StorageNone:
	case StorageS3:
		if s.AWS.Bucket == "" {
			return errors.New("no aws bucket for s3 storage")
		}
	case StorageLocal:
		if s.StoragePath == "" {
			return errors.New("no storage.path for local storage")
		}
	default:
		return errors.Errorf("unknown storage type '%s'", s.StorageType)
	}
	if s.StorageRetries < 0 {
		return errors.Errorf("storage.retries must be >= 0, got %d", s.StorageRetries)
	}
	if s.Svix.RetentionDays < 1 {
		return errors.Errorf("svix.retentionDays must be >= 1, got %d", s.Svix.RetentionDays)
	}
	if _, err := utils.ValidateURL(s.TranscriberURL, "transcriber.url"); err != nil {
		return err
	}
	if s.Svix.URL != "" {
		if _, err := utils.ValidateURL(s.Svix.URL, "svix.url"); err != nil {
			return err
		}
	}
	return nil
}

//Warnings lists insecure defaults used outside of debug mode
func (s *Settings) Warnings() []string {
	if s.Debug {
		return nil
	}
	var res []string
	if s.Auth.Username == defaultUsername {
		res = append(res, "default username is used")
	}
	if s.Auth.Password == defaultPassword {
		res = append(res, "default password is used")
	}
	if s.Auth.SigningKey == defaultSigningKey {
		res = append(res, "default signing key is used")
	}
	return res
}

//NotifyEnabled is true when both event bus credentials are set
func (s *Settings) NotifyEnabled() bool {
	return s.Svix.APIKey != "" && s.Svix.AppID != ""
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"fincalendar/bot"
	"fincalendar/internal/db"
	m "fincalendar/internal/model"
	"fincalendar/internal/util"
	"fincalendar/scrape"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var configByte []byte

type OauthProvider struct {
	Key      string `yaml:"key"`
	Secret   string `yaml:"secret"`
	Callback string `yaml:"callback"`
}

type Config struct {
	Log string `yaml:"log"`
	App struct {
		Port       int    `yaml:"port"`
		JwtKey     string `yaml:"jwtkey"`
		Passkey    string `yaml:"passkey"`
		SessionKey string `yaml:"sessionkey"`
		Origins    string `yaml:"origins"`
	} `yaml:"app"`
	Oauth    map[string]*OauthProvider `yaml:"oauth"`
	Telegram struct {
		ChatId string `yaml:"chatId"`
		Token  string `yaml:"token"`
	} `yaml:"telegram"`

	Db struct {
		User     string `yaml:"user"`
		Password string `yaml:"pwd"`
		IP       string `yaml:"ip"`
		Port     string `yaml:"port"`
		Scheme   string `yaml:"scheme"`
	} `yaml:"db"`

	Redis struct {
		IP       string `yaml:"ip"`
		Port     string `yaml:"port"`
		Password string `yaml:"pwd"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Scrape struct {
		BaseURL string        `yaml:"baseurl"`
		Browser bool          `yaml:"browser"`
		Wait    time.Duration `yaml:"wait"`
	} `yaml:"scrape"`

	Calendar struct {
		Countries []string `yaml:"countries"`
		Horizon   int      `yaml:"horizon"`
		Retention int      `yaml:"retention"`
	} `yaml:"calendar"`
}

// NewConfig reads the embedded config.yaml, decodes its base64 secrets, applies FINCAL_*
// overrides from the environment or a .env file in the working directory and finally opens
// "aes:" sealed secrets with FINCAL_SECRET_KEY.
func NewConfig() (*Config, error) {

	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".env 로드 시 오류 발생. %w", err)
	}

	return load(configByte, os.LookupEnv)
}

func load(b []byte, lookup func(string) (string, bool)) (*Config, error) {

	var ConfigInfo Config = Config{}

	err := yaml.Unmarshal(b, &ConfigInfo)
	if err != nil {
		return nil, err
	}

	if err := decode(&ConfigInfo); err != nil {
		return nil, err
	}

	if err := override(&ConfigInfo, lookup); err != nil {
		return nil, err
	}

	key, _ := lookup("FINCAL_SECRET_KEY")
	if err := unseal(&ConfigInfo, key); err != nil {
		return nil, err
	}

	return &ConfigInfo, nil
}

func (c Config) LogLevel() (zerolog.Level, error) {

	level, err := zerolog.ParseLevel(c.Log)
	if err != nil {
		return zerolog.InfoLevel, err // Default로는 Info 레벨 설정
	}

	return level, nil
}

func (c Config) BotConfig() (*bot.TeleBotConfig, error) {

	chatId, err := strconv.ParseInt(c.Telegram.ChatId, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("telegram chatId 변환 시 오류 발생. %w", err)
	}

	return &bot.TeleBotConfig{
		Token:  c.Telegram.Token,
		ChatId: chatId,
	}, nil
}

func (c Config) MysqlConfig() *db.MysqlConfig {
	return db.NewMysqlConfig(c.Db.User, c.Db.Password, c.Db.IP, c.Db.Port, c.Db.Scheme)
}

// RedisConfig is nil when no redis address is configured; the cache is then skipped.
func (c Config) RedisConfig() *db.RedisConfig {
	if c.Redis.IP == "" {
		return nil
	}
	return db.NewRedisConfig(c.Redis.Password, c.Redis.IP, c.Redis.Port, c.Redis.DB)
}

func (c Config) ScrapeOptions() []scrape.Option {
	opts := make([]scrape.Option, 0, 2)
	if c.Scrape.BaseURL != "" {
		opts = append(opts, scrape.WithBaseURL(c.Scrape.BaseURL))
	}
	if c.Scrape.Browser {
		opts = append(opts, scrape.WithBrowser(c.Scrape.Wait))
	}
	return opts
}

// Countries returns the configured crawl targets, or every supported country when none are set.
func (c Config) Countries() ([]m.Country, error) {
	if len(c.Calendar.Countries) == 0 {
		return m.CountryList(), nil
	}
	countries := make([]m.Country, 0, len(c.Calendar.Countries))
	for _, s := range c.Calendar.Countries {
		country, err := m.ToCountry(s)
		if err != nil {
			return nil, err
		}
		countries = append(countries, country)
	}
	return countries, nil
}

// OauthProviders lists the providers with both key and secret set.
func (c Config) OauthProviders() map[string]OauthProvider {
	rtn := make(map[string]OauthProvider)
	for name, p := range c.Oauth {
		if p == nil || p.Key == "" || p.Secret == "" {
			continue
		}
		rtn[name] = *p
	}
	return rtn
}

func decode(conf *Config) error {
	for _, target := range []*string{
		&conf.Telegram.ChatId,
		&conf.Telegram.Token,
		&conf.App.JwtKey,
		&conf.App.Passkey,
		&conf.App.SessionKey,
	} {
		if util.IsSealed(*target) {
			continue
		}
		if err := util.Decode(target); err != nil {
			return err
		}
	}
	return nil
}

// unseal opens "aes:" values (util.Seal) with the key from FINCAL_SECRET_KEY.
func unseal(conf *Config, key string) error {
	targets := map[string]*string{
		"app.jwtkey":     &conf.App.JwtKey,
		"app.passkey":    &conf.App.Passkey,
		"app.sessionkey": &conf.App.SessionKey,
		"telegram.token": &conf.Telegram.Token,
		"db.pwd":         &conf.Db.Password,
		"redis.pwd":      &conf.Redis.Password,
	}
	for name, p := range conf.Oauth {
		if p != nil {
			targets["oauth."+name+".secret"] = &p.Secret
		}
	}

	for name, target := range targets {
		if !util.IsSealed(*target) {
			continue
		}
		if key == "" {
			return fmt.Errorf("%s 복호화 실패. FINCAL_SECRET_KEY 미설정", name)
		}
		plain, err := util.Open(key, *target)
		if err != nil {
			return fmt.Errorf("%s 복호화 실패. %w", name, err)
		}
		*target = plain
	}
	return nil
}

// 환경변수 값은 base64 인코딩 없이 그대로 사용
func override(conf *Config, lookup func(string) (string, bool)) error {

	targets := map[string]*string{
		"FINCAL_LOG":              &conf.Log,
		"FINCAL_JWT_KEY":          &conf.App.JwtKey,
		"FINCAL_PASSKEY":          &conf.App.Passkey,
		"FINCAL_SESSION_KEY":      &conf.App.SessionKey,
		"FINCAL_ORIGINS":          &conf.App.Origins,
		"FINCAL_TELEGRAM_CHAT_ID": &conf.Telegram.ChatId,
		"FINCAL_TELEGRAM_TOKEN":   &conf.Telegram.Token,
		"FINCAL_DB_USER":          &conf.Db.User,
		"FINCAL_DB_PWD":           &conf.Db.Password,
		"FINCAL_DB_IP":            &conf.Db.IP,
		"FINCAL_DB_PORT":          &conf.Db.Port,
		"FINCAL_DB_SCHEME":        &conf.Db.Scheme,
		"FINCAL_REDIS_IP":         &conf.Redis.IP,
		"FINCAL_REDIS_PORT":       &conf.Redis.Port,
		"FINCAL_REDIS_PWD":        &conf.Redis.Password,
		"FINCAL_SCRAPE_BASE_URL":  &conf.Scrape.BaseURL,
	}
	for key, target := range targets {
		if v, ok := lookup(key); ok {
			*target = v
		}
	}

	if v, ok := lookup("FINCAL_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FINCAL_PORT 변환 시 오류 발생. %w", err)
		}
		conf.App.Port = port
	}

	if conf.Oauth == nil {
		conf.Oauth = make(map[string]*OauthProvider)
	}
	for _, name := range []string{"google", "github"} {
		key, kok := lookup(fmt.Sprintf("FINCAL_OAUTH_%s_KEY", strings.ToUpper(name)))
		secret, sok := lookup(fmt.Sprintf("FINCAL_OAUTH_%s_SECRET", strings.ToUpper(name)))
		if !kok && !sok {
			continue
		}
		p := conf.Oauth[name]
		if p == nil {
			p = &OauthProvider{}
			conf.Oauth[name] = p
		}
		if kok {
			p.Key = key
		}
		if sok {
			p.Secret = secret
		}
	}
	return nil
}

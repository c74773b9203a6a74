package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"vaultd/log"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type config struct {
	// MySQL configs.
	User     string
	Password string
	Hostname string
	Port     string
	Database string

	// Label sets log output prefix.
	Label string

	// Listen is the address the vault API server binds to.
	Listen string

	// OracleRPCs are the price oracle endpoints.
	OracleRPCs []string `mapstructure:"oracle_rpc_url"`

	// OracleMaxAge is the maximum acceptable age of an oracle
	// reading, in seconds.
	OracleMaxAge uint `mapstructure:"oracle_max_age"`

	// BridgeURL is the settlement bridge endpoint used for
	// asset pull/push transfers.
	BridgeURL string `mapstructure:"bridge_url"`

	// MaxTotalValue caps the total deposited value held by the vault,
	// in accounting units (6 decimals). Fixed for the process lifetime.
	MaxTotalValue uint64 `mapstructure:"max_total_value"`

	// MaxWithdrawValue caps a single withdrawal, in accounting units.
	// Fixed for the process lifetime.
	MaxWithdrawValue uint64 `mapstructure:"max_withdraw_value"`

	// Assets lists the non-native asset identifiers the vault accepts.
	Assets []string

	// AliyunMail is an optional config which will be used in mail alert package.
	AliyunMail AliyunMailConfig `mapstructure:"aliyun_mail"`
}

// AliyunMailConfig is the struct for aliyun mail configs.
type AliyunMailConfig struct {
	AccountName     string
	Region          string
	AccessKeyID     string
	AccessKeySecret string
	Receiver        []string
}

var cfg config

// Load reads and validates the config file.
func Load(display bool) {
	viper.SetConfigName("config")
	viper.AddConfigPath("./config")
	// Incase test cases require loading configs.
	viper.AddConfigPath("../config")

	if err := load(display); err != nil {
		panic(err)
	}

	if err := check(); err != nil {
		panic(err)
	}

	update()

	log.UpdatePrefix(GetLabel())

	viper.WatchConfig()
	viper.OnConfigChange(onConfigChange)
}

func load(display bool) error {
	err := viper.ReadInConfig()
	if err != nil {
		return err
	}

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return err
	}

	if display {
		configContent, _ := json.MarshalIndent(cfg, "", "    ")
		log.Println(string(configContent))
	}

	return nil
}

func update() {
	for i := 0; i < len(cfg.OracleRPCs); i++ {
		rpc := cfg.OracleRPCs[i]
		if !strings.HasPrefix(rpc, "http") {
			cfg.OracleRPCs[i] = "http://" + rpc
		}
	}
}

// GetDbConnStr returns mysql connection string.
func GetDbConnStr() string {
	str := fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s",
		cfg.User,
		cfg.Password,
		cfg.Hostname,
		cfg.Port,
		cfg.Database,
	)

	params := []string{
		"charset=utf8",
		"parseTime=True",
		"loc=Local",
		"maxAllowedPacket=52428800",
		"multiStatements=True",
	}

	if len(params) > 0 {
		str = fmt.Sprintf("%s?%s", str, strings.Join(params, "&"))
	}

	return str
}

// GetLabel returns custome label as console output prefix.
func GetLabel() string {
	return cfg.Label
}

// GetListen returns the API server listen address.
func GetListen() string {
	return cfg.Listen
}

// GetOracleRPCs returns all oracle rpc urls from config.
func GetOracleRPCs() []string {
	return cfg.OracleRPCs
}

// GetOracleMaxAge returns the maximum acceptable oracle reading age in seconds.
func GetOracleMaxAge() uint {
	return cfg.OracleMaxAge
}

// GetBridgeURL returns the settlement bridge endpoint.
func GetBridgeURL() string {
	return cfg.BridgeURL
}

// GetMaxTotalValue returns the global deposit value cap.
func GetMaxTotalValue() uint64 {
	return cfg.MaxTotalValue
}

// GetMaxWithdrawValue returns the per-withdrawal value limit.
func GetMaxWithdrawValue() uint64 {
	return cfg.MaxWithdrawValue
}

// GetAssets returns the configured non-native asset identifiers.
func GetAssets() []string {
	return cfg.Assets
}

// LoadAliyunMailConfig performs a basic check on aliyun mail config.
func LoadAliyunMailConfig() error {
	if err := checkAliyunMail(); err != nil {
		return err
	}

	return nil
}

// GetAliyunMailConfig returns aliyun mail configs.
func GetAliyunMailConfig() AliyunMailConfig {
	return cfg.AliyunMail
}

func check() error {
	if err := checkOracleRPCs(); err != nil {
		return err
	}

	if err := checkLimits(); err != nil {
		return err
	}

	if cfg.Listen == "" {
		return errors.New("listen address must be set")
	}

	if cfg.BridgeURL == "" {
		return errors.New("bridge_url must be set")
	}

	return nil
}

func checkLimits() error {
	if cfg.MaxTotalValue == 0 {
		return errors.New("max_total_value must greater than zero")
	}

	if cfg.MaxWithdrawValue == 0 {
		return errors.New("max_withdraw_value must greater than zero")
	}

	if cfg.OracleMaxAge == 0 {
		return errors.New("oracle_max_age must greater than zero")
	}

	return nil
}

func checkOracleRPCs() error {
	if len(cfg.OracleRPCs) < 1 {
		return errors.New("at least 1 oracle rpc server url must be set")
	}

	for _, rpc := range cfg.OracleRPCs {
		if strings.HasPrefix(rpc, "http") {
			u, err := url.Parse(rpc)
			if err != nil {
				return err
			}
			rpc = u.Host
		}

		_, _, err := net.SplitHostPort(rpc)
		if err != nil {
			return err
		}
	}

	return nil
}

func checkAliyunMail() error {
	m := cfg.AliyunMail

	if m.AccountName == "" {
		return errors.New("aliyun mail account name cannot be empty")
	}

	if m.Region == "" {
		return errors.New("aliyun mail region cannot be empty")
	}

	if m.AccessKeyID == "" {
		return errors.New("aliyun mail accessKeyID cannot be empty")
	}

	if m.AccessKeySecret == "" {
		return errors.New("aliyun mail accessKeySecret cannot be empty")
	}

	if len(m.Receiver) == 0 {
		return errors.New("aliyun mail receiver cannot be empty")
	}

	return nil
}

// onConfigChange reloads mutable settings only. The value limits are
// fixed at construction time and stay untouched even if the file changed.
func onConfigChange(e fsnotify.Event) {
	log.Printf("Config file change detected: %s", e.Name)

	const stdErr = "Failed to read new configuration, current configuration stay unchanged"

	oldMaxTotal := cfg.MaxTotalValue
	oldMaxWithdraw := cfg.MaxWithdrawValue

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("%s: %s", stdErr, err)
		return
	}

	if err := load(true); err != nil {
		log.Printf("%s: %s", stdErr, err)
		return
	}

	if err := check(); err != nil {
		log.Printf("%s: %s", stdErr, err)
		return
	}

	if cfg.MaxTotalValue != oldMaxTotal || cfg.MaxWithdrawValue != oldMaxWithdraw {
		log.Printf("Value limits cannot be changed at runtime, keeping previous values")
	}
	cfg.MaxTotalValue = oldMaxTotal
	cfg.MaxWithdrawValue = oldMaxWithdraw

	update()

	log.UpdatePrefix(GetLabel())
}

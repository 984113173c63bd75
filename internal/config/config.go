package config

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"

	"github.com/stayloop/rooms-service/internal/utils"
)

type Config struct {
	AppName string
	AppPort string
	AppUrl  string
	Env     string

	// Database
	DBUrl string

	// Notification fanout
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Twilio / SendGrid for guest confirmations
	TwilioAccountSID string
	TwilioAuthToken  string
	SendGridAPIKey   string

	// Auth
	RSAPublicKey *rsa.PublicKey

	// LaunchDarkly flags
	LDFlag_TwilioFromPhone     string
	LDFlag_SendgridFromEmail   string
	LDFlag_SendgridSandboxMode bool
	LDFlag_SeedDbWithTestData  bool
	LDFlag_CORSHighSecurity    bool
}

const LDConnectionTimeout = 5 * time.Second

func LoadConfig() *Config {
	env := os.Getenv("ENV")
	if env == "" {
		utils.Logger.Fatal("ENV env var is missing")
	}
	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}
	appName := os.Getenv("APP_NAME")
	if appName == "" {
		appName = "rooms-service"
	}
	appUrl := os.Getenv("APP_URL_FROM_ANYWHERE")
	if appUrl == "" {
		utils.Logger.Fatal("APP_URL_FROM_ANYWHERE env var is missing")
	}

	utils.Logger.Info("Loading config for app: ", appName)

	secrets := loadSecrets(appName, env)

	dbURL := secrets["DB_URL"]
	if dbURL == "" {
		utils.Logger.Fatal("DB_URL secret is missing")
	}

	pubB64 := secrets["RSA_PUBLIC_KEY_BASE64"]
	if pubB64 == "" {
		utils.Logger.Fatal("RSA_PUBLIC_KEY_BASE64 secret is missing")
	}
	pubPEM, _ := base64.StdEncoding.DecodeString(pubB64)
	if block, _ := pem.Decode(pubPEM); block == nil {
		utils.Logger.Fatal("Failed to decode PEM block for public key")
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA public key")
	}

	twilioSID := secrets["TWILIO_ACCOUNT_SID"]
	if twilioSID == "" {
		utils.Logger.Fatal("TWILIO_ACCOUNT_SID secret is missing")
	}
	twilioToken := secrets["TWILIO_AUTH_TOKEN"]
	if twilioToken == "" {
		utils.Logger.Fatal("TWILIO_AUTH_TOKEN secret is missing")
	}
	sgAPIKey := secrets["SENDGRID_API_KEY"]
	if sgAPIKey == "" {
		utils.Logger.Fatal("SENDGRID_API_KEY secret is missing")
	}

	cfg := &Config{
		AppName:          appName,
		AppPort:          appPort,
		AppUrl:           appUrl,
		Env:              env,
		DBUrl:            dbURL,
		RedisAddr:        secrets["REDIS_ADDR"],
		RedisPassword:    secrets["REDIS_PASSWORD"],
		TwilioAccountSID: twilioSID,
		TwilioAuthToken:  twilioToken,
		SendGridAPIKey:   sgAPIKey,
		RSAPublicKey:     pubKey,
	}

	loadFeatureFlags(cfg, secrets["LD_SDK_KEY"])
	return cfg
}

// loadSecrets pulls the app's secret bundle from Bitwarden. When no
// BWS_ACCESS_TOKEN is set (local runs), each secret falls back to its plain
// environment variable.
func loadSecrets(appName, env string) map[string]string {
	keys := []string{
		"DB_URL", "REDIS_ADDR", "REDIS_PASSWORD",
		"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "SENDGRID_API_KEY",
		"RSA_PUBLIC_KEY_BASE64", "LD_SDK_KEY",
	}

	if os.Getenv("BWS_ACCESS_TOKEN") == "" {
		utils.Logger.Info("BWS_ACCESS_TOKEN not set; reading secrets from environment")
		out := map[string]string{}
		for _, k := range keys {
			out[k] = os.Getenv(k)
		}
		return out
	}

	client, err := utils.NewBWSSecretsClient()
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to initialize BWSSecretsClient")
	}
	defer client.Close()

	projectName := fmt.Sprintf("%s-%s", appName, env)
	secrets, err := client.GetBWSSecrets(projectName)
	if err != nil {
		utils.Logger.WithError(err).Fatalf("Failed to fetch secrets from BWS (%s)", projectName)
	}
	return secrets
}

// loadFeatureFlags snapshots the LaunchDarkly flags at startup. Without an
// SDK key every flag keeps its safe default.
func loadFeatureFlags(cfg *Config, sdkKey string) {
	cfg.LDFlag_TwilioFromPhone = "+10005550006"
	cfg.LDFlag_SendgridFromEmail = "no-reply@stayloop.io"

	if sdkKey == "" {
		utils.Logger.Info("LD_SDK_KEY not set; using default feature flags")
		return
	}

	ldClient, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
	}
	if !ldClient.Initialized() {
		ldClient.Close()
		utils.Logger.Fatal("LaunchDarkly client failed to initialize")
	}
	defer ldClient.Close()

	ctx := ldcontext.New(cfg.AppName + "-" + cfg.Env)

	twilioFromFlag, err := ldClient.StringVariation("twilio_from_phone", ctx, "")
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving twilio_from_phone flag")
	}
	utils.Logger.Debugf("twilio_from_phone flag: %s", twilioFromFlag)
	if twilioFromFlag != "" {
		cfg.LDFlag_TwilioFromPhone = twilioFromFlag
	}

	sgFromFlag, err := ldClient.StringVariation("sendgrid_from_email", ctx, "")
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving sendgrid_from_email flag")
	}
	utils.Logger.Debugf("sendgrid_from_email flag: %s", sgFromFlag)
	if sgFromFlag != "" {
		cfg.LDFlag_SendgridFromEmail = sgFromFlag
	}

	sgSandboxFlag, err := ldClient.BoolVariation("sendgrid_sandbox_mode", ctx, false)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving sendgrid_sandbox_mode flag")
	}
	utils.Logger.Debugf("sendgrid_sandbox_mode flag: %t", sgSandboxFlag)
	cfg.LDFlag_SendgridSandboxMode = sgSandboxFlag

	seedDbWithTestDataFlag, err := ldClient.BoolVariation("seed_db_with_test_data", ctx, false)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving seed_db_with_test_data flag")
	}
	utils.Logger.Debugf("seed_db_with_test_data flag: %t", seedDbWithTestDataFlag)
	cfg.LDFlag_SeedDbWithTestData = seedDbWithTestDataFlag

	corsHighSecurityFlag, err := ldClient.BoolVariation("cors_high_security", ctx, false)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving cors_high_security flag")
	}
	utils.Logger.Debugf("cors_high_security flag: %t", corsHighSecurityFlag)
	cfg.LDFlag_CORSHighSecurity = corsHighSecurityFlag
}

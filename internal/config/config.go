package config

import (
	"github.com/spf13/viper"
)

// The service is expected to run with its connection and AWS settings
// injected as environment variables; the defaults below match the local
// docker-compose/LocalStack setup.

type Config struct {
	DBHost                  string `mapstructure:"DB_HOST"`
	DBPort                  string `mapstructure:"DB_PORT"`
	DBUser                  string `mapstructure:"DB_USER"`
	DBPassword              string `mapstructure:"DB_PASSWORD"`
	DBName                  string `mapstructure:"DB_NAME"`
	ServerPort              string `mapstructure:"SERVER_PORT"`
	AWSRegion               string `mapstructure:"AWS_REGION"`
	AWSEndpoint             string `mapstructure:"AWS_ENDPOINT"`
	DecisionSQSQueueURL     string `mapstructure:"DECISION_SQS_QUEUE_URL"`
	SummarySQSQueueURL      string `mapstructure:"SUMMARY_SQS_QUEUE_URL"`
	ScheduleAPIURL          string `mapstructure:"SCHEDULE_API_URL"`
	EmailSender             string `mapstructure:"EMAIL_SENDER"`
	ManagerApprovalRequired bool   `mapstructure:"MANAGER_APPROVAL_REQUIRED"`
	IsLocalDev              bool   `mapstructure:"IS_LOCAL_DEV"`
	OTLPEndpoint            string `mapstructure:"OTLP_ENDPOINT"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("DB_HOST", "db")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "timetrack_db")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	viper.SetDefault("DECISION_SQS_QUEUE_URL", "http://localstack:4566/000000000000/decision-queue")
	viper.SetDefault("SUMMARY_SQS_QUEUE_URL", "http://localstack:4566/000000000000/summary-queue")
	viper.SetDefault("SCHEDULE_API_URL", "http://localhost:8081/")
	viper.SetDefault("EMAIL_SENDER", "no-reply@timetrack-service.com")
	viper.SetDefault("MANAGER_APPROVAL_REQUIRED", true)
	viper.SetDefault("IS_LOCAL_DEV", false)
	viper.SetDefault("OTLP_ENDPOINT", "")

	// Read in environment variables that match the keys.
	viper.AutomaticEnv()

	err = viper.Unmarshal(&config)
	return
}

package config

import "time"

type AppConfig struct {
	APIPort string `env:"PORT" envDefault:"12222"`
	APIKey  string `env:"COMPLAINTSTACK_API_KEY,required"`
}

type DatabaseConfig struct {
	Host            string `env:"COMPLAINTSTACK_POSTGRES_HOST,required"`
	Port            string `env:"COMPLAINTSTACK_POSTGRES_PORT,required"`
	User            string `env:"COMPLAINTSTACK_POSTGRES_USER,required"`
	DBName          string `env:"COMPLAINTSTACK_POSTGRES_DB_NAME,required"`
	Password        string `env:"COMPLAINTSTACK_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"COMPLAINTSTACK_POSTGRES_DB_MAX_CONN" envDefault:"50"`
	MaxIdleConn     int    `env:"COMPLAINTSTACK_POSTGRES_DB_MAX_IDLE_CONN" envDefault:"10"`
	ConnMaxLifetime int    `env:"COMPLAINTSTACK_POSTGRES_DB_CONN_MAX_LIFETIME" envDefault:"60"`
	LogLevel        string `env:"COMPLAINTSTACK_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"COMPLAINTSTACK_POSTGRES_SSL_MODE" envDefault:"require"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type MailboxConfig struct {
	ImapServer   string        `env:"IMAP_SERVER,required"`
	ImapPort     int           `env:"IMAP_PORT" envDefault:"993"`
	ImapUsername string        `env:"IMAP_USERNAME,required"`
	ImapPassword string        `env:"IMAP_PASSWORD,required"`
	ImapTLS      bool          `env:"IMAP_TLS" envDefault:"true"`
	Folder       string        `env:"IMAP_FOLDER" envDefault:"INBOX"`
	FetchBatch   int           `env:"IMAP_FETCH_BATCH" envDefault:"50"`
	DialTimeout  time.Duration `env:"IMAP_DIAL_TIMEOUT" envDefault:"30s"`
}

type StorageConfig struct {
	Region            string        `env:"AWS_REGION" envDefault:"us-east-1"`
	Endpoint          string        `env:"S3_ENDPOINT"`
	AccessKeyID       string        `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey   string        `env:"AWS_SECRET_ACCESS_KEY"`
	AttachmentBucket  string        `env:"BUCKET_NAME_COMPLAINT_ATTACHMENT" envDefault:"complaint-attachments"`
	PresignedURLLived time.Duration `env:"S3_PRESIGNED_URL_TTL" envDefault:"15m"`
}

type AnalyzerConfig struct {
	APIKey       string        `env:"OPENAI_API_KEY,required"`
	BaseURL      string        `env:"OPENAI_BASE_URL"`
	Model        string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	Timeout      time.Duration `env:"ANALYZER_TIMEOUT" envDefault:"60s"`
	MaxRetries   int           `env:"ANALYZER_MAX_RETRIES" envDefault:"3"`
	RetryBackoff time.Duration `env:"ANALYZER_RETRY_BACKOFF" envDefault:"2s"`
}

type NotificationConfig struct {
	RabbitMQURL string `env:"RABBITMQ_URL"`
	Exchange    string `env:"NOTIFICATION_EXCHANGE" envDefault:"notifications"`
	RoutingKey  string `env:"NOTIFICATION_ROUTING_KEY" envDefault:"complaint-escalation"`
}

type PipelineConfig struct {
	WorkerPoolSize        int           `env:"PIPELINE_WORKER_POOL_SIZE" envDefault:"8"`
	AttachmentParallelism int           `env:"PIPELINE_ATTACHMENT_PARALLELISM" envDefault:"4"`
	CacheTTL              time.Duration `env:"DEDUP_CACHE_TTL" envDefault:"1h"`
	SimilarityThreshold   float64       `env:"DEDUP_SIMILARITY_THRESHOLD" envDefault:"0.85"`
	DrainGracePeriod      time.Duration `env:"PIPELINE_DRAIN_GRACE_PERIOD" envDefault:"30s"`
	SupportedFormats      []string      `env:"SUPPORTED_ATTACHMENT_FORMATS" envSeparator:"," envDefault:"pdf,word,image,spreadsheet,csv,text,html"`
}

package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"hypegrow.db"`

	Auth        Auth        `envPrefix:"AUTH_"`
	Reseller    Reseller    `envPrefix:"RESELLER_"`
	Fulfillment Fulfillment `envPrefix:"FULFILLMENT_"`
	Storage     Storage     `envPrefix:"STORAGE_"`
	BrainTree   Braintree   `envPrefix:"BRAINTREE_"`
	Kafka       Kafka       `envPrefix:"KAFKA_"`
}

type Auth struct {
	// shared HS256 secret of the auth provider that issues user tokens
	JWTSecret string `env:"JWT_SECRET"`
	// users granted the admin role at startup
	AdminUserIDs []string `env:"ADMIN_USER_IDS" envSeparator:","`
}

type Reseller struct {
	BaseApiURL string        `env:"BASE_API_URL" envDefault:"https://justanotherpanel.com/api/v2"`
	APIKey     string        `env:"API_KEY"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"30s"`
	// reseller rates are per 1000 units in USD; this converts them to the shop currency
	PriceMultiplier float64       `env:"PRICE_MULTIPLIER" envDefault:"1000"`
	CatalogTTL      time.Duration `env:"CATALOG_TTL" envDefault:"10m"`
}

type Fulfillment struct {
	AutoDispatch bool          `env:"AUTO_DISPATCH" envDefault:"true"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"30s"`
	PollBatch    int           `env:"POLL_BATCH" envDefault:"50"`

	// dispatching rows untouched this long are released for a retry
	StaleDispatchAfter time.Duration `env:"STALE_DISPATCH_AFTER" envDefault:"5m"`
}

type Storage struct {
	ProofDir      string `env:"PROOF_DIR" envDefault:"./data/payment-proofs"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"/payment-proofs"`
	MaxProofBytes int64  `env:"MAX_PROOF_BYTES" envDefault:"10485760"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT" envDefault:"sandbox"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}

type Kafka struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"ORDER_EVENTS_TOPIC" envDefault:"order_events"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
	// browser origins allowed by CORS; empty allows any
	AllowedOrigins []string `env:"HTTP_ALLOWED_ORIGINS" envSeparator:","`
	BodyLimit      string   `env:"HTTP_BODY_LIMIT" envDefault:"12M"`
}

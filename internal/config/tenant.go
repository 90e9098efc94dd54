package config

import (
	"context"
	"time"
)

// InterestRates are percentages applied at issuance/creation time.
type InterestRates struct {
	Loan int64
	FD   int64
	RD   int64
}

// TenantConfig is the read-only per-call economy configuration of one tenant.
// Storage and administration of these values live outside this service; every
// operation receives the config as an input and never writes it back.
type TenantConfig struct {
	Prefix         string
	CurrencyEmoji  string
	Rates          InterestRates
	MarketTaxPct   int64
	RobSuccessPct  int
	RobFinePct     int64
	RobFineFloor   int64
	RobCooldown    time.Duration
	MaxActiveLoans int
	LoanBaseAmount int64
	WalletLimit    int64
	BankLimit      int64
	InitialGrant   int64
	DailyAmount    int64
	DailyCooldown  time.Duration
	WorkMinAmount  int64
	WorkMaxAmount  int64
	WorkCooldown   time.Duration
	GameCooldowns  map[string]time.Duration
}

// GameCooldown returns the configured cooldown for a game, or zero.
func (c TenantConfig) GameCooldown(game string) time.Duration {
	if c.GameCooldowns == nil {
		return 0
	}
	return c.GameCooldowns[game]
}

// TenantProvider resolves the economy configuration for a tenant.
type TenantProvider interface {
	Get(ctx context.Context, tenantID string) (TenantConfig, error)
}

// EnvTenantProvider serves the same env-derived defaults to every tenant.
// It is the stand-in for an external configuration store.
type EnvTenantProvider struct {
	defaults TenantConfig
}

func NewEnvTenantProvider() *EnvTenantProvider {
	return &EnvTenantProvider{defaults: DefaultTenantConfig()}
}

func (p *EnvTenantProvider) Get(_ context.Context, _ string) (TenantConfig, error) {
	return p.defaults, nil
}

// DefaultTenantConfig reads the default economy tuning from the environment.
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		Prefix:        GetEnv("ECONOMY_PREFIX", "$"),
		CurrencyEmoji: GetEnv("ECONOMY_CURRENCY_EMOJI", ":coin:"),
		Rates: InterestRates{
			Loan: GetInt64Env("ECONOMY_LOAN_RATE_PCT", 10),
			FD:   GetInt64Env("ECONOMY_FD_RATE_PCT", 5),
			RD:   GetInt64Env("ECONOMY_RD_RATE_PCT", 3),
		},
		MarketTaxPct:   GetInt64Env("ECONOMY_MARKET_TAX_PCT", 10),
		RobSuccessPct:  GetIntEnv("ECONOMY_ROB_SUCCESS_PCT", 40),
		RobFinePct:     GetInt64Env("ECONOMY_ROB_FINE_PCT", 10),
		RobFineFloor:   GetInt64Env("ECONOMY_ROB_FINE_FLOOR", 50),
		RobCooldown:    time.Duration(GetIntEnv("ECONOMY_ROB_COOLDOWN_SEC", 3600)) * time.Second,
		MaxActiveLoans: GetIntEnv("ECONOMY_MAX_ACTIVE_LOANS", 1),
		LoanBaseAmount: GetInt64Env("ECONOMY_LOAN_BASE_AMOUNT", 1000),
		WalletLimit:    GetInt64Env("ECONOMY_WALLET_LIMIT", 0),
		BankLimit:      GetInt64Env("ECONOMY_BANK_LIMIT", 0),
		InitialGrant:   GetInt64Env("ECONOMY_INITIAL_GRANT", 500),
		DailyAmount:    GetInt64Env("ECONOMY_DAILY_AMOUNT", 200),
		DailyCooldown:  time.Duration(GetIntEnv("ECONOMY_DAILY_COOLDOWN_SEC", 86400)) * time.Second,
		WorkMinAmount:  GetInt64Env("ECONOMY_WORK_MIN_AMOUNT", 50),
		WorkMaxAmount:  GetInt64Env("ECONOMY_WORK_MAX_AMOUNT", 250),
		WorkCooldown:   time.Duration(GetIntEnv("ECONOMY_WORK_COOLDOWN_SEC", 3600)) * time.Second,
		GameCooldowns: map[string]time.Duration{
			"blackjack": time.Duration(GetIntEnv("ECONOMY_BLACKJACK_COOLDOWN_SEC", 15)) * time.Second,
			"coinflip":  time.Duration(GetIntEnv("ECONOMY_COINFLIP_COOLDOWN_SEC", 10)) * time.Second,
			"dice":      time.Duration(GetIntEnv("ECONOMY_DICE_COOLDOWN_SEC", 10)) * time.Second,
			"slots":     time.Duration(GetIntEnv("ECONOMY_SLOTS_COOLDOWN_SEC", 20)) * time.Second,
		},
	}
}

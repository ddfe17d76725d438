package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// YouTube
	YoutubeClientID     string `env:"YOUTUBE_CLIENT_ID"`
	YoutubeClientSecret string `env:"YOUTUBE_CLIENT_SECRET"`
	YoutubeRefreshToken string `env:"YOUTUBE_REFRESH_TOKEN"`
	YoutubeVideoID      string `env:"YOUTUBE_VIDEO_ID"`

	// VM
	VMName         string `env:"VM_NAME" envDefault:"ArchChaos"`
	VBoxManagePath string `env:"VBOXMANAGE_PATH" envDefault:"VBoxManage"`
	SnapshotName   string `env:"SNAPSHOT_NAME" envDefault:"clean"`
	DataDir        string `env:"DATA_DIR" envDefault:"data"`
	ScreenshotPath string `env:"SCREENSHOT_PATH" envDefault:"data/vm_screen.png"`
	CommandPrefix  string `env:"COMMAND_PREFIX" envDefault:"!"`
	TypeMaxLength  int    `env:"TYPE_MAX_LENGTH" envDefault:"200"`
	MouseMaxDelta  int    `env:"MOUSE_MAX_DELTA" envDefault:"500"`
	MouseAbsXMax   int    `env:"MOUSE_ABS_X_MAX" envDefault:"1920"`
	MouseAbsYMax   int    `env:"MOUSE_ABS_Y_MAX" envDefault:"1080"`
	MaxWaitSeconds int    `env:"MAX_WAIT_SECONDS" envDefault:"10"`

	// Pipeline
	VoteDuration       time.Duration `env:"VOTE_DURATION" envDefault:"30s"`
	GlobalCooldown     time.Duration `env:"GLOBAL_COOLDOWN" envDefault:"2s"`
	UserCooldown       time.Duration `env:"USER_COOLDOWN" envDefault:"5s"`
	QueueCapacity      int           `env:"QUEUE_CAPACITY" envDefault:"50"`
	DedupWindow        int           `env:"DEDUP_WINDOW" envDefault:"2048"`
	ScreenshotInterval time.Duration `env:"SCREENSHOT_INTERVAL" envDefault:"3s"`

	// Gamificación
	PointsPerCommand int `env:"POINTS_PER_COMMAND" envDefault:"1"`
	PointsPerVoteWin int `env:"POINTS_PER_VOTE_WIN" envDefault:"5"`
	LeaderboardSize  int `env:"LEADERBOARD_SIZE" envDefault:"5"`

	// Moderación
	AdminUserIDs []string `env:"ADMIN_USER_IDS" envSeparator:","`
	ModUserIDs   []string `env:"MOD_USER_IDS" envSeparator:","`

	// Overlay OBS
	OverlayAddr string `env:"OVERLAY_ADDR" envDefault:"127.0.0.1:7373"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.YoutubeClientID == "" || cfg.YoutubeRefreshToken == "" {
		log.Println("Advertencia: No se encontraron credenciales de YouTube, el feed no va a arrancar")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.QueueCapacity < 1 {
		return fmt.Errorf("config: QUEUE_CAPACITY must be at least 1, got %d", c.QueueCapacity)
	}
	if c.VoteDuration <= 0 {
		return fmt.Errorf("config: VOTE_DURATION must be positive, got %s", c.VoteDuration)
	}
	if c.VMName == "" {
		return fmt.Errorf("config: VM_NAME must not be empty")
	}
	return nil
}

package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port     string
		LogLevel string
	}
	Backend struct {
		BaseURL string
		Timeout time.Duration
	}
	Assistant struct {
		Locale                  string
		VoiceEnabled            bool
		BookingIntent           string
		PaymentIntent           string
		InvalidateOnTopicChange bool
		SpeechRate              float64
		SpeechPitch             float64
		SpeechVolume            float64
	}
	Deepgram struct {
		APIKey        string
		Model         string
		WSURL         string
		EndpointingMs int
		UtterEndMs    int
	}
	Eleven struct {
		APIKey  string
		VoiceID string
		ModelID string
		BaseURL string
	}
	Client struct {
		StatePath string
	}
	Panel struct {
		TokenSecret string
		TokenTTLMin int
	}
}

// Load reads defaults, the optional CINEVOX_CONFIG file and the environment,
// in increasing precedence.
func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8090)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("backend.base_url", "http://localhost:8080/api")
	v.SetDefault("backend.timeout_seconds", 15)

	v.SetDefault("assistant.locale", "hi-IN")
	v.SetDefault("assistant.voice_enabled", true)
	v.SetDefault("assistant.booking_intent", "book_ticket")
	v.SetDefault("assistant.payment_intent", "payment_step")
	v.SetDefault("assistant.invalidate_on_topic_change", false)
	v.SetDefault("assistant.speech_rate", 1.0)
	v.SetDefault("assistant.speech_pitch", 1.2)
	v.SetDefault("assistant.speech_volume", 1.0)

	v.SetDefault("deepgram.model", "nova-2")
	v.SetDefault("deepgram.ws_url", "wss://api.deepgram.com/v1/listen")
	v.SetDefault("deepgram.endpointing_ms", 1000)
	v.SetDefault("deepgram.utterance_end_ms", 1500)

	v.SetDefault("elevenlabs.model_id", "eleven_multilingual_v2")
	v.SetDefault("elevenlabs.base_url", "https://api.elevenlabs.io/v1")

	v.SetDefault("client.state_path", defaultStatePath())
	v.SetDefault("panel.token_ttl_min", 720)

	// Map envs
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")

	v.BindEnv("backend.base_url", "CINEVOX_API_URL")
	v.BindEnv("backend.timeout_seconds", "CINEVOX_API_TIMEOUT_SECONDS")

	v.BindEnv("assistant.locale", "ASSISTANT_LOCALE")
	v.BindEnv("assistant.voice_enabled", "ASSISTANT_VOICE_ENABLED")
	v.BindEnv("assistant.booking_intent", "ASSISTANT_BOOKING_INTENT")
	v.BindEnv("assistant.payment_intent", "ASSISTANT_PAYMENT_INTENT")
	v.BindEnv("assistant.invalidate_on_topic_change", "ASSISTANT_INVALIDATE_ON_TOPIC_CHANGE")
	v.BindEnv("assistant.speech_rate", "ASSISTANT_SPEECH_RATE")
	v.BindEnv("assistant.speech_pitch", "ASSISTANT_SPEECH_PITCH")
	v.BindEnv("assistant.speech_volume", "ASSISTANT_SPEECH_VOLUME")

	v.BindEnv("deepgram.api_key", "DEEPGRAM_API_KEY")
	v.BindEnv("deepgram.model", "DEEPGRAM_MODEL")
	v.BindEnv("deepgram.ws_url", "DEEPGRAM_WS_URL")
	v.BindEnv("deepgram.endpointing_ms", "DEEPGRAM_ENDPOINTING_MS")
	v.BindEnv("deepgram.utterance_end_ms", "DEEPGRAM_UTTERANCE_END_MS")

	v.BindEnv("elevenlabs.api_key", "ELEVENLABS_API_KEY")
	v.BindEnv("elevenlabs.voice_id", "ELEVENLABS_VOICE_ID")
	v.BindEnv("elevenlabs.model_id", "ELEVENLABS_MODEL_ID")
	v.BindEnv("elevenlabs.base_url", "ELEVENLABS_BASE_URL")

	v.BindEnv("client.state_path", "CINEVOX_STATE_PATH")
	v.BindEnv("panel.token_secret", "PANEL_TOKEN_SECRET")
	v.BindEnv("panel.token_ttl_min", "PANEL_TOKEN_TTL_MIN")

	if path := os.Getenv("CINEVOX_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("[config] read %s: %v (using defaults and env)", path, err)
		}
	}

	var c Config
	c.Server.Port = toString(v.Get("server.port"))
	c.Server.LogLevel = v.GetString("server.log_level")

	c.Backend.BaseURL = v.GetString("backend.base_url")
	c.Backend.Timeout = time.Duration(v.GetInt("backend.timeout_seconds")) * time.Second

	c.Assistant.Locale = v.GetString("assistant.locale")
	c.Assistant.VoiceEnabled = v.GetBool("assistant.voice_enabled")
	c.Assistant.BookingIntent = v.GetString("assistant.booking_intent")
	c.Assistant.PaymentIntent = v.GetString("assistant.payment_intent")
	c.Assistant.InvalidateOnTopicChange = v.GetBool("assistant.invalidate_on_topic_change")
	c.Assistant.SpeechRate = v.GetFloat64("assistant.speech_rate")
	c.Assistant.SpeechPitch = v.GetFloat64("assistant.speech_pitch")
	c.Assistant.SpeechVolume = v.GetFloat64("assistant.speech_volume")

	c.Deepgram.APIKey = v.GetString("deepgram.api_key")
	c.Deepgram.Model = v.GetString("deepgram.model")
	c.Deepgram.WSURL = v.GetString("deepgram.ws_url")
	c.Deepgram.EndpointingMs = v.GetInt("deepgram.endpointing_ms")
	c.Deepgram.UtterEndMs = v.GetInt("deepgram.utterance_end_ms")

	c.Eleven.APIKey = v.GetString("elevenlabs.api_key")
	c.Eleven.VoiceID = v.GetString("elevenlabs.voice_id")
	c.Eleven.ModelID = v.GetString("elevenlabs.model_id")
	c.Eleven.BaseURL = v.GetString("elevenlabs.base_url")

	c.Client.StatePath = v.GetString("client.state_path")
	c.Panel.TokenSecret = v.GetString("panel.token_secret")
	c.Panel.TokenTTLMin = v.GetInt("panel.token_ttl_min")

	log.Printf("[config] loaded: port=%s backend=%s locale=%s", c.Server.Port, c.Backend.BaseURL, c.Assistant.Locale)
	return c
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cinevox", "state.toml")
	}
	return filepath.Join(home, ".cinevox", "state.toml")
}

func toString(v any) string { return fmt.Sprint(v) }

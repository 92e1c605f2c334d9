package app

import (
	"whisperkit/internal/domain"
	"whisperkit/internal/relay"
	identitysvc "whisperkit/internal/services/identity"
	messagesvc "whisperkit/internal/services/message"
	prekeysvc "whisperkit/internal/services/prekey"
	sessionsvc "whisperkit/internal/services/session"
	"whisperkit/internal/store"
)

// App bundles the stores, services and relay client for the CLI.
type App struct {
	Identity domain.IdentityService
	PreKeys  domain.PreKeyService
	Sessions domain.SessionService
	Messages domain.MessageService
	Relay    domain.RelayClient
}

// New constructs the dependency graph from cfg. Relay is nil when no relay
// URL is configured; commands that need it check first.
func New(cfg Config) *App {
	identityStore := store.NewFileIdentityStore(cfg.Home)
	prekeyStore := store.NewFilePreKeyStore(cfg.Home)
	bundleStore := store.NewFileBundleStore(cfg.Home)
	sessionStore := store.NewFileSessionStore(cfg.Home)

	var rc domain.RelayClient
	if cfg.RelayURL != "" {
		client := relay.NewClient(cfg.RelayURL)
		if cfg.HTTP != nil {
			client.HTTP = cfg.HTTP
		}
		rc = client
	}

	return &App{
		Identity: identitysvc.New(identityStore),
		PreKeys:  prekeysvc.New(identityStore, prekeyStore, bundleStore),
		Sessions: sessionsvc.New(identityStore, bundleStore, sessionStore, rc),
		Messages: messagesvc.New(identityStore, prekeyStore, sessionStore, rc),
		Relay:    rc,
	}
}

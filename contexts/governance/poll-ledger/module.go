package pollledger

import (
	"log/slog"

	httpadapter "pollchain/contexts/governance/poll-ledger/adapters/http"
	"pollchain/contexts/governance/poll-ledger/adapters/memory"
	"pollchain/contexts/governance/poll-ledger/application/commands"
	"pollchain/contexts/governance/poll-ledger/application/queries"
	"pollchain/contexts/governance/poll-ledger/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Ledger ports.LedgerStore
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	transitionUseCase := commands.TransitionUseCase{
		Ledger: deps.Ledger,
		Outbox: deps.Outbox,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	resultsUseCase := queries.ResultsUseCase{
		Ledger: deps.Ledger,
		Clock:  deps.Clock,
	}
	return Module{
		Handler: httpadapter.Handler{
			Transitions: transitionUseCase,
			Results:     resultsUseCase,
			Logger:      deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against the in-process execution
// environment; the store doubles as clock, ID source, and outbox.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Ledger: store,
		Outbox: store,
		Clock:  store,
		IDGen:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}

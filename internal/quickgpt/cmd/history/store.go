package history

import (
	"github.com/kiosk404/quickgpt/internal/quickgpt/cmd/util"
	historysvc "github.com/kiosk404/quickgpt/internal/quickgpt/service/history"
	"github.com/kiosk404/quickgpt/internal/quickgpt/service/llm/entity"
)

func readSession(f util.Factory, ref string) ([]*entity.Message, error) {
	path, err := historysvc.Resolve(f.Options().HistoryOptions.Dir, ref)
	if err != nil {
		return nil, err
	}
	store, err := historysvc.Open(path)
	if err != nil {
		return nil, err
	}
	return store.ReadAll()
}

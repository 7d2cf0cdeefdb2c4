package prompt

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/dmorgan81/craiyonbot/craiyon"
	"github.com/dmorgan81/craiyonbot/internal/log"
	"github.com/samber/do"
	"github.com/samber/lo"
)

var ErrNoPrompts = errors.New("no prompts configured")

// Pick is one entry of the prompt list, written as model|prompt[|negative prompt].
type Pick struct {
	Model          string
	Prompt         string
	NegativePrompt string
}

type Randomizer struct {
	prompts []string
	rnd     *rand.Rand
}

func NewRandomizer(i *do.Injector) (*Randomizer, error) {
	prompts := do.MustInvokeNamed[[]string](i, "prompts")
	rnd := rand.New(rand.NewSource(time.Now().UTC().UnixNano()))
	return &Randomizer{prompts, rnd}, nil
}

func (r *Randomizer) Randomize(ctx context.Context) (Pick, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("randomizer")
	log.Info("getting random model and prompt", "choices", len(r.prompts))
	if len(r.prompts) == 0 {
		return Pick{}, ErrNoPrompts
	}
	return Parse(r.prompts[r.rnd.Intn(len(r.prompts))])
}

func Parse(line string) (Pick, error) {
	parts := lo.Map(strings.SplitN(line, "|", 3), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	if len(parts) < 2 || parts[1] == "" {
		return Pick{}, fmt.Errorf("malformed prompt %q, want model|prompt[|negative prompt]", line)
	}

	model, err := craiyon.ParseModelType(parts[0])
	if err != nil {
		return Pick{}, err
	}
	pick := Pick{Model: model.String(), Prompt: parts[1]}
	if len(parts) == 3 {
		pick.NegativePrompt = parts[2]
	}
	return pick, nil
}

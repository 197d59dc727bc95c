package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"decisionsim/domain/answer"
	"decisionsim/domain/core"
	"decisionsim/domain/stage"
)

func newPlayCmd() *cobra.Command {
	var restart bool

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Answer the remaining stages interactively",
		Long: `Walk through the stage set from where the stored session stopped.

Choices are picked by number or id, multi-select stages take a comma
separated list, and an empty line quits without losing progress.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := openContainer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			if restart {
				if _, err := c.Sessions.Restart(ctx); err != nil {
					return err
				}
			}

			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			for {
				st, state, err := c.Sessions.Current(ctx)
				if errors.Is(err, core.ErrSessionCompleted) {
					summary, err := c.Sessions.Result(ctx)
					if err != nil {
						return err
					}
					printSummary(cmd, c.Set.Aspects, summary)
					return nil
				}
				if err != nil {
					return err
				}

				p.printf("\n[%d/%d] %s\n", state.Index+1, state.Total, st.Title)
				resp, err := p.ask(st)
				if err == io.EOF || err == errQuit {
					p.printf("Progress saved.\n")
					return nil
				}
				if err != nil {
					return err
				}

				result, err := c.Sessions.Submit(ctx, resp)
				if errors.Is(err, core.ErrAlreadyAnswered) {
					p.printf("Stage already answered by this group, moving on.\n")
					result, err = c.Sessions.SkipAnswered(ctx)
				}
				if core.IsTransitionError(err) {
					p.printf("%v\n", err)
					continue
				}
				if err != nil {
					return err
				}
				if !result.Applied {
					p.printf("%s. Try again.\n", result.Sync.Message)
					continue
				}
				p.printf("→ %s (%s)\n", result.Outcome.Description, result.Outcome.Effect.Format(c.Set.Aspects))
				if result.Outcome.Justification != "" {
					p.printf("  %s\n", result.Outcome.Justification)
				}
				if result.Sync.Attempted && !result.Sync.OK {
					p.printf("  (not sent: %s)\n", result.Sync.Message)
				}
			}
		},
	}
	cmd.Flags().BoolVar(&restart, "restart", false, "start over from the first stage")
	return cmd
}

var errQuit = errors.New("quit")

// prompter reads answers for one stage at a time from a line-oriented reader
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

func (p *prompter) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format, args...)
}

// line reads the next trimmed line. An empty line quits.
func (p *prompter) line(prompt string) (string, error) {
	p.printf("%s> ", prompt)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	text := strings.TrimSpace(p.in.Text())
	if text == "" {
		return "", errQuit
	}
	return text, nil
}

// ask renders st and reads a response of the matching shape
func (p *prompter) ask(st stage.Stage) (answer.Response, error) {
	if st.Text != "" {
		p.printf("%s\n", st.Text)
	}
	if st.Media != nil {
		p.printf("(%s: %s)\n", st.Media.Type, st.Media.Src)
	}
	if st.Prompt != "" {
		p.printf("%s\n", st.Prompt)
	}

	switch st.Kind {
	case stage.KindChoice:
		return p.askChoice(st.Choice)
	case stage.KindSelect:
		ids := make([]string, len(st.Select.Items))
		for i, item := range st.Select.Items {
			ids[i] = item.ID
			p.printf("  %d) %s\n", i+1, item.Text)
		}
		selected, err := p.askList("select", ids)
		return answer.Response{Selected: selected}, err
	case stage.KindWordEffect:
		ids := make([]string, len(st.WordEffect.Words))
		for i, w := range st.WordEffect.Words {
			ids[i] = w.ID
			p.printf("  %d) %s\n", i+1, w.Text)
		}
		selected, err := p.askList("select", ids)
		return answer.Response{Selected: selected}, err
	case stage.KindRank:
		ids := make([]string, len(st.Rank.Items))
		for i, item := range st.Rank.Items {
			ids[i] = item.ID
			p.printf("  %d) %s\n", i+1, item.Text)
		}
		ranked, err := p.askList("order", ids)
		return answer.Response{Ranked: ranked}, err
	case stage.KindRating:
		return p.askRatings(st.Rating)
	case stage.KindDimensions:
		return p.askDimensions(st.Dimensions)
	case stage.KindSequential:
		return p.askSequential(st.Sequential)
	default:
		return answer.Response{}, core.NewInvalidAnswerError(st.ID, "unsupported kind "+string(st.Kind))
	}
}

func (p *prompter) askChoice(cfg *stage.ChoiceConfig) (answer.Response, error) {
	ids := make([]string, len(cfg.Options))
	for i, opt := range cfg.Options {
		ids[i] = opt.ID
		p.printf("  %d) %s\n", i+1, opt.Label)
	}
	text, err := p.line("choice")
	if err != nil {
		return answer.Response{}, err
	}
	return answer.Response{OptionID: resolveID(text, ids)}, nil
}

func (p *prompter) askList(prompt string, ids []string) ([]string, error) {
	text, err := p.line(prompt + " (comma separated)")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, resolveID(part, ids))
		}
	}
	return out, nil
}

func (p *prompter) askRatings(cfg *stage.RatingConfig) (answer.Response, error) {
	ratings := make(map[string]int, len(cfg.Items))
	for _, item := range cfg.Items {
		for {
			text, err := p.line(fmt.Sprintf("%s [%d-%d]", item.Label, cfg.Min, cfg.Max))
			if err != nil {
				return answer.Response{}, err
			}
			n, err := strconv.Atoi(text)
			if err != nil || n < cfg.Min || n > cfg.Max {
				p.printf("enter a number between %d and %d\n", cfg.Min, cfg.Max)
				continue
			}
			ratings[item.Key] = n
			break
		}
	}
	return answer.Response{Ratings: ratings}, nil
}

func (p *prompter) askDimensions(cfg *stage.DimensionsConfig) (answer.Response, error) {
	practiced := make(map[string]bool, len(cfg.Items))
	for _, d := range cfg.Items {
		if d.Description != "" {
			p.printf("%s: %s\n", d.Name, d.Description)
		}
		yes, err := p.yesNo(d.Name)
		if err != nil {
			return answer.Response{}, err
		}
		practiced[d.Key] = yes
	}
	return answer.Response{Practiced: practiced}, nil
}

func (p *prompter) askSequential(cfg *stage.SequentialConfig) (answer.Response, error) {
	first, err := p.yesNo(cfg.First.Prompt)
	if err != nil {
		return answer.Response{}, err
	}
	p.printf("%s\n", cfg.Second.Prompt)
	ids := make([]string, len(cfg.Second.Options))
	for i, opt := range cfg.Second.Options {
		ids[i] = opt.Key
		p.printf("  %d) %s\n", i+1, opt.Label)
	}
	text, err := p.line("scale")
	if err != nil {
		return answer.Response{}, err
	}
	return answer.Response{FirstYes: answer.Bool(first), SecondKey: resolveID(text, ids)}, nil
}

func (p *prompter) yesNo(prompt string) (bool, error) {
	for {
		text, err := p.line(prompt + " [s/n]")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(text) {
		case "s", "sim", "y", "yes":
			return true, nil
		case "n", "nao", "não", "no":
			return false, nil
		}
		p.printf("answer s or n\n")
	}
}

// resolveID maps a 1-based position to its id and passes anything else through
func resolveID(text string, ids []string) string {
	if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(ids) {
		return ids[n-1]
	}
	return text
}

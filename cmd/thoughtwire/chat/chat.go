// Package chatcmder provides the chat command, an interactive terminal client
// that streams narrated answers through the thoughtwire relay.
package chatcmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/thoughtwire/pkg/client"
	"github.com/papercomputeco/thoughtwire/pkg/config"
	"github.com/papercomputeco/thoughtwire/pkg/dotdir"
	"github.com/papercomputeco/thoughtwire/pkg/logger"
	"github.com/papercomputeco/thoughtwire/pkg/render"
)

type chatCommander struct {
	relayTarget string
	apiTarget   string
	userID      string
	profile     string
	windowMS    uint

	chatID    string
	newChat   bool
	configDir string
	debug     bool
	logFile   string

	logger *slog.Logger
}

const chatLongDesc string = `Start an interactive chat session through the thoughtwire relay.

Answers are streamed as narration: the model's reasoning steps, tool calls
and final answer appear as they happen. Narration fragments are coalesced
into readable segments (see --window-ms) and the set of event types shown
depends on the transcript profile:
  compact    Narration, final answers and errors only
  verbose    Everything except keepalives and tool input
  auto       compact below 80 columns, verbose otherwise

The chat id is remembered in .thoughtwire/session.json so that the next
"thoughtwire chat" resumes the same conversation. Use --new to start over or
--chat-id to join a specific conversation. Previous turns are loaded from the
API server when available.

Keys:
  enter      Send the query
  esc        Abort the answer being streamed
  pgup/pgdn  Scroll the transcript
  ctrl+c     Quit`

const chatShortDesc string = "Interactive narrated chat through the relay"

// historyLimit bounds how many persisted turns are loaded on start.
const historyLimit = 50

var chatFlags = []string{
	config.FlagRelayTarget,
	config.FlagAPITarget,
	config.FlagUserID,
	config.FlagRenderProfile,
	config.FlagRenderWindow,
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, chatFlags)

			cfg := config.FromViper(v)
			cmder.relayTarget = cfg.Client.RelayTarget
			cmder.apiTarget = cfg.Client.APITarget
			cmder.userID = cfg.Client.UserID
			cmder.profile = cfg.Render.Profile
			cmder.windowMS = cfg.Render.WindowMS
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.logFile, err = cmd.Flags().GetString("log-file")
			if err != nil {
				return fmt.Errorf("could not get log-file flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagRelayTarget, &cmder.relayTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagUserID, &cmder.userID)
	config.AddStringFlag(cmd, config.Flags, config.FlagRenderProfile, &cmder.profile)
	config.AddUintFlag(cmd, config.Flags, config.FlagRenderWindow, &cmder.windowMS)
	cmd.Flags().StringVar(&cmder.chatID, "chat-id", "", "Join this conversation instead of the saved one")
	cmd.Flags().BoolVar(&cmder.newChat, "new", false, "Start a new conversation")

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	// The TUI owns the terminal, so logs only go to a file in debug mode.
	c.logger = logger.Nop()
	if c.debug {
		path, err := c.debugLogPath()
		if err != nil {
			return err
		}
		l, f, err := logger.OpenFile(path, true)
		if err != nil {
			return err
		}
		defer f.Close()
		c.logger = l
	}

	profile, err := render.ParseProfile(c.profile)
	if err != nil {
		return err
	}

	session, err := c.resolveSession()
	if err != nil {
		return err
	}

	c.logger.Info("starting chat",
		"chat_id", session.ChatID,
		"relay_target", c.relayTarget,
		"api_target", c.apiTarget,
		"profile", string(profile),
	)

	model := newChatModel(chatModelOpts{
		client: client.New(client.Config{
			RelayTarget: c.relayTarget,
			APITarget:   c.apiTarget,
			Logger:      c.logger,
		}),
		chatID:   session.ChatID,
		userID:   session.UserID,
		profile:  profile,
		initial:  render.DetectProfile(profile, os.Stdout),
		window:   time.Duration(c.windowMS) * time.Millisecond,
		markdown: markdownRenderer(lipgloss.HasDarkBackground()),
		logger:   c.logger,
	})

	program := bubbletea.NewProgram(model,
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
		bubbletea.WithMouseCellMotion(),
	)
	_, err = program.Run()
	return err
}

// resolveSession picks the chat to join: an explicit --chat-id, the saved
// session, or a fresh one. The result is saved for the next run.
func (c *chatCommander) resolveSession() (*dotdir.ChatSession, error) {
	manager := dotdir.NewManager()

	var session *dotdir.ChatSession
	switch {
	case c.chatID != "":
		session = &dotdir.ChatSession{ChatID: c.chatID}
	case !c.newChat:
		saved, err := manager.LoadChatSession(c.configDir)
		if err != nil {
			return nil, fmt.Errorf("loading chat session: %w", err)
		}
		session = saved
	}

	if session == nil {
		session = &dotdir.ChatSession{ChatID: uuid.NewString()}
	}
	if c.userID != "" {
		session.UserID = c.userID
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}

	if err := manager.SaveChatSession(session, c.configDir); err != nil {
		return nil, fmt.Errorf("saving chat session: %w", err)
	}
	return session, nil
}

// debugLogPath is --log-file when given, otherwise chat.log in the
// .thoughtwire directory.
func (c *chatCommander) debugLogPath() (string, error) {
	if c.logFile != "" {
		return c.logFile, nil
	}
	dir, err := dotdir.NewManager().EnsureTarget(c.configDir)
	if err != nil {
		return "", fmt.Errorf("resolving log directory: %w", err)
	}
	return filepath.Join(dir, "chat.log"), nil
}

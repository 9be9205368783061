// Package shell is the interactive text front-end over core.Service.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"linkreg/internal/core"
)

// errQuit ends the session when input runs out.
var errQuit = errors.New("input closed")

// Shell runs the menu loop. Any input line containing prefix+code redeems the code first.
type Shell struct {
	svc     *core.Service
	in      *bufio.Scanner
	out     io.Writer
	prefix  string
	open    Opener
	log     *slog.Logger
	nowFunc func() time.Time
}

// New builds a shell. A nil opener prints the URL instead of launching it.
func New(svc *core.Service, in io.Reader, out io.Writer, prefix string, open Opener, log *slog.Logger) *Shell {
	if open == nil {
		open = PrintOpener{W: out}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Shell{
		svc:     svc,
		in:      bufio.NewScanner(in),
		out:     out,
		prefix:  prefix,
		open:    open,
		log:     log,
		nowFunc: time.Now,
	}
}

// Run drives the main menu until the user exits or input ends.
func (s *Shell) Run(ctx context.Context) error {
	s.printf("=== Link shortener (in-memory) ===\n")
	s.printf("Tip: type %s[code] at any prompt to use a link and open it.\n", s.prefix)
	err := s.mainMenu(ctx)
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

func (s *Shell) mainMenu(ctx context.Context) error {
	for {
		if err := s.sweep(ctx); err != nil {
			return err
		}
		s.printf("\nMenu:\n1) Log in with UUID\n2) Create UUID (register and log in)\n0) Exit\nYour choice: ")
		choice, err := s.readLine(ctx)
		if err != nil {
			return err
		}
		switch strings.TrimSpace(choice) {
		case "1":
			s.printf("Enter your UUID: ")
			line, err := s.readLine(ctx)
			if err != nil {
				return err
			}
			uid, err := uuid.Parse(strings.TrimSpace(line))
			if err != nil {
				s.printf("Malformed UUID.\n")
				continue
			}
			ok, err := s.svc.UserExists(ctx, uid)
			if err != nil {
				return err
			}
			if !ok {
				s.printf("User not found.\n")
				continue
			}
			if err := s.accountMenu(ctx, uid); err != nil {
				return err
			}
		case "2":
			uid, err := s.svc.RegisterUser(ctx)
			if err != nil {
				return err
			}
			s.printf("New user created: %s\n", uid)
			if err := s.accountMenu(ctx, uid); err != nil {
				return err
			}
		case "0":
			s.printf("Bye!\n")
			return nil
		default:
			s.printf("Invalid choice. Try again.\n")
		}
	}
}

func (s *Shell) accountMenu(ctx context.Context, uid uuid.UUID) error {
	for {
		if err := s.sweep(ctx); err != nil {
			return err
		}
		s.printf("\nUUID: %s\n1) List my links\n2) Create link\n3) Delete link\n0) Log out\nYour choice: ", uid)
		choice, err := s.readLine(ctx)
		if err != nil {
			return err
		}
		switch strings.TrimSpace(choice) {
		case "1":
			err = s.listLinks(ctx, uid)
		case "2":
			err = s.createLink(ctx, uid)
		case "3":
			err = s.deleteLink(ctx, uid)
		case "0":
			s.printf("Logged out.\n")
			return nil
		default:
			s.printf("Invalid choice. Try again.\n")
		}
		if err != nil {
			return err
		}
	}
}

func (s *Shell) listLinks(ctx context.Context, uid uuid.UUID) error {
	links, err := s.svc.Links(ctx, uid)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		s.printf("You have no links.\n")
		return nil
	}
	s.printf("Your links:\n")
	for i, l := range links {
		s.printf("[%d]\n%s\n", i+1, l.Format(s.prefix))
	}
	return nil
}

func (s *Shell) createLink(ctx context.Context, uid uuid.UUID) error {
	s.printf("Enter a link (https://, http:// or no scheme): ")
	raw, err := s.readLine(ctx)
	if err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if !core.ValidURL(raw) {
		s.printf("Invalid link format.\n")
		return nil
	}

	s.printf("Choose a lifetime:\n")
	for i, c := range core.ExpiryChoices {
		s.printf("%d) %s\n", i+1, c.Label)
	}
	s.printf("Your choice: ")
	choice, err := s.readLine(ctx)
	if err != nil {
		return err
	}
	expires := core.ExpiryFromChoice(choice, s.nowFunc())

	uses, err := s.readInt(ctx, fmt.Sprintf("Enter the maximum number of uses (>0, at most %d): ", math.MaxInt32), 1, math.MaxInt32)
	if err != nil {
		return err
	}

	link, err := s.svc.Shorten(ctx, core.CreateRequest{Owner: uid, URL: raw, MaxUses: uses, ExpiresAt: expires})
	if err != nil {
		if core.IsInvalidInput(err) || core.IsConflict(err) {
			s.printf("Could not create link: %v\n", err)
			return nil
		}
		return err
	}
	s.log.Debug("link created", "code", link.Code, "owner", uid)
	s.printf("Created:\n%s\n", link.Format(s.prefix))
	return nil
}

func (s *Shell) deleteLink(ctx context.Context, uid uuid.UUID) error {
	links, err := s.svc.Links(ctx, uid)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		s.printf("You have no links to delete.\n")
		return nil
	}
	for i, l := range links {
		s.printf("%d) %s%s  ->  %s\n", i+1, s.prefix, l.Code, l.Original)
	}
	s.printf("Pick a number to delete (0 cancels): ")
	line, err := s.readLine(ctx)
	if err != nil {
		return err
	}
	idx, err := strconv.Atoi(strings.TrimSpace(line))
	switch {
	case err != nil:
		s.printf("Invalid input.\n")
		return nil
	case idx == 0:
		s.printf("Cancelled.\n")
		return nil
	case idx < 1 || idx > len(links):
		s.printf("Invalid number.\n")
		return nil
	}
	ok, err := s.svc.Delete(ctx, uid, links[idx-1].Code)
	if err != nil {
		return err
	}
	if ok {
		s.printf("Link deleted.\n")
	} else {
		s.printf("Could not delete link.\n")
	}
	return nil
}

// readInt re-prompts until the input is an integer in [lo, hi].
func (s *Shell) readInt(ctx context.Context, prompt string, lo, hi int) (int, error) {
	for {
		s.printf("%s", prompt)
		line, err := s.readLine(ctx)
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
		if err != nil {
			s.printf("A number is expected.\n")
			continue
		}
		if n < int64(lo) || n > int64(hi) {
			s.printf("Number out of range.\n")
			continue
		}
		return int(n), nil
	}
}

// readLine returns the next line that is not a successful redemption.
// Lines naming a usable code are consumed: the link is opened and reading continues.
func (s *Shell) readLine(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !s.in.Scan() {
			if err := s.in.Err(); err != nil {
				return "", err
			}
			return "", errQuit
		}
		line := s.in.Text()
		code, ok := extractCode(line, s.prefix)
		if !ok {
			return line, nil
		}
		res, err := s.svc.Redeem(ctx, code)
		if err != nil {
			return "", err
		}
		target, ok := res.Get()
		if !ok {
			s.printf("Code is not valid.\n")
			return line, nil
		}
		s.printf("Opening...\n")
		if err := s.open.Open(core.RedirectTarget(target)); err != nil {
			s.printf("Could not open: %s\n", core.RedirectTarget(target))
		}
	}
}

func (s *Shell) sweep(ctx context.Context) error {
	n, err := s.svc.CleanupExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Debug("swept links", "removed", n)
	}
	return nil
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// extractCode returns the token after prefix, ending at the first whitespace.
func extractCode(text, prefix string) (string, bool) {
	if prefix == "" {
		return "", false
	}
	i := strings.Index(text, prefix)
	if i < 0 {
		return "", false
	}
	rest := text[i+len(prefix):]
	if end := strings.IndexFunc(rest, unicode.IsSpace); end >= 0 {
		rest = rest[:end]
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}

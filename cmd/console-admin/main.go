// ABOUTME: Operator CLI for the platform's auth and role administration
// ABOUTME: Stores the credential pair in a local file between invocations

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/docuchat/console-gateway/internal/credstore"
	"github.com/docuchat/console-gateway/internal/platform"
	"github.com/docuchat/console-gateway/internal/rbac"
	"github.com/docuchat/console-gateway/internal/session"
)

const banner = `
                                _                      _           _
  ___ ___  _ __  ___  ___ | | ___        __ _  __| |_ __ ___ (_)_ __
 / __/ _ \| '_ \/ __|/ _ \| |/ _ \_____ / _' |/ _' | '_ ' _ \| | '_ \
| (_| (_) | | | \__ \ (_) | |  __/_____| (_| | (_| | | | | | | | | | |
 \___\___/|_| |_|___/\___/|_|\___|      \__,_|\__,_|_| |_| |_|_|_| |_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	baseURL := os.Getenv("CONSOLE_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cli := newCLI(baseURL)

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "login":
		err = cli.cmdLogin(ctx, args)
	case "logout":
		err = cli.cmdLogout(ctx)
	case "me":
		err = cli.cmdMe(ctx)
	case "roles":
		err = cli.cmdRoles(ctx)
	case "matrix":
		err = cli.cmdMatrix(ctx)
	case "grant":
		err = cli.cmdGrant(ctx, args)
	case "revoke":
		err = cli.cmdRevoke(ctx, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(banner)
	fmt.Println("Usage: console-admin <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  login <email>              Sign in and store the credential")
	fmt.Println("  logout                     Sign out and clear the credential")
	fmt.Println("  me                         Show the current identity")
	fmt.Println("  roles                      List roles and their permissions")
	fmt.Println("  matrix                     Print the role/permission matrix")
	fmt.Println("  grant <role> <permission>  Attach a permission to a role")
	fmt.Println("  revoke <role> <permission> Detach a permission from a role")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  CONSOLE_API_URL            Backend base URL (default http://localhost:8000)")
}

// credentialPath returns the file where the CLI keeps its token pair.
func credentialPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "credentials.json"
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "docuchat", "credentials.json")
}

type cli struct {
	client *platform.Client
	creds  *credstore.FileStore
	ctrl   *session.Controller
	rbac   *rbac.Service
}

func newCLI(baseURL string) *cli {
	client := platform.NewClient(baseURL, 15*time.Second)
	creds := credstore.NewFileStore(credentialPath())

	return &cli{
		client: client,
		creds:  creds,
		ctrl: session.NewController(client, creds, session.Routes{
			Login:          "/login",
			DefaultLanding: "/home",
			AdminLanding:   "/admin",
		}),
		rbac: rbac.NewService(client),
	}
}

// refreshWindow is how close to expiry the access token may get before
// resolve rotates the pair ahead of the command.
const refreshWindow = 5 * time.Minute

// resolve settles the stored credential and fails with a friendly message
// when there is no live session.
func (c *cli) resolve(ctx context.Context) error {
	if err := c.ctrl.Resolve(ctx); err != nil {
		if platform.IsUnreachable(err) {
			return fmt.Errorf("backend unreachable (credential kept): %v", err)
		}
		return err
	}
	if !c.ctrl.SignedIn() {
		return fmt.Errorf("not logged in, run: console-admin login <email>")
	}

	// A near-expiry token is rotated now so it cannot lapse mid-command.
	// Failure is not fatal: the current token just resolved.
	if _, err := c.ctrl.MaybeRefresh(ctx, refreshWindow); err != nil {
		color.Yellow("token refresh failed: %v", err)
	}
	return nil
}

func (c *cli) cmdLogin(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: console-admin login <email>")
	}
	email := args[0]

	fmt.Print("Password: ")
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	password = strings.TrimSpace(password)

	if _, err := c.ctrl.Login(ctx, email, password); err != nil {
		if ve := platform.AsValidation(err); ve != nil {
			return fmt.Errorf("%s", ve.Message)
		}
		return err
	}

	sess := c.ctrl.Current()
	color.Green("Logged in as %s", sess.Email)
	if sess.IsAdmin() {
		fmt.Println("Role:", sess.RoleName, "(admin)")
	} else if sess.RoleName != "" {
		fmt.Println("Role:", sess.RoleName)
	}
	return nil
}

func (c *cli) cmdLogout(ctx context.Context) error {
	c.ctrl.Logout(ctx)
	color.Green("Logged out")
	return nil
}

func (c *cli) cmdMe(ctx context.Context) error {
	if err := c.resolve(ctx); err != nil {
		return err
	}

	sess := c.ctrl.Current()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", sess.ID)
	fmt.Fprintf(w, "Email:\t%s\n", sess.Email)
	fmt.Fprintf(w, "Name:\t%s\n", sess.DisplayName)
	fmt.Fprintf(w, "Role:\t%s\n", sess.RoleName)
	fmt.Fprintf(w, "Admin:\t%v\n", sess.IsAdmin())
	return w.Flush()
}

func (c *cli) cmdRoles(ctx context.Context) error {
	if err := c.resolve(ctx); err != nil {
		return err
	}

	snap, err := c.rbac.Load(ctx, c.ctrl.AccessToken())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSYSTEM\tUSERS\tPERMISSIONS")
	for _, role := range snap.Roles {
		fmt.Fprintf(w, "%s\t%s\t%v\t%d\t%d\n",
			role.ID, role.Name, role.IsSystem, role.UserCount, len(role.Permissions))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stale := snap.StaleAttachments()
	for roleID, ids := range stale {
		color.Yellow("role %s has attachments not in the catalogue: %s",
			roleID, strings.Join(ids, ", "))
	}
	return nil
}

func (c *cli) cmdMatrix(ctx context.Context) error {
	if err := c.resolve(ctx); err != nil {
		return err
	}

	snap, err := c.rbac.Load(ctx, c.ctrl.AccessToken())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprint(w, "PERMISSION")
	for _, role := range snap.Roles {
		fmt.Fprintf(w, "\t%s", role.Name)
	}
	fmt.Fprintln(w)

	for _, group := range snap.Matrix() {
		for _, row := range group.Rows {
			fmt.Fprint(w, row.Permission.Name)
			for _, granted := range row.Granted {
				if granted {
					fmt.Fprint(w, "\tx")
				} else {
					fmt.Fprint(w, "\t-")
				}
			}
			fmt.Fprintln(w)
		}
	}
	return w.Flush()
}

func (c *cli) cmdGrant(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: console-admin grant <role-id> <permission-id>")
	}
	if err := c.resolve(ctx); err != nil {
		return err
	}

	role, err := c.rbac.Grant(ctx, c.ctrl.AccessToken(), args[0], args[1])
	if err != nil {
		return err
	}

	color.Green("Granted %s to %s (%d permissions now)", args[1], role.Name, len(role.Permissions))
	return nil
}

func (c *cli) cmdRevoke(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: console-admin revoke <role-id> <permission-id>")
	}
	if err := c.resolve(ctx); err != nil {
		return err
	}

	role, err := c.rbac.Revoke(ctx, c.ctrl.AccessToken(), args[0], args[1])
	if err != nil {
		return err
	}

	color.Green("Revoked %s from %s (%d permissions now)", args[1], role.Name, len(role.Permissions))
	return nil
}

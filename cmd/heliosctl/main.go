// heliosctl is a small operator CLI against a running Helios API. It keeps a
// session in a credentials file under the user config dir, so consecutive
// invocations stay signed in.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/helioshq/helios-admin/internal/authz"
	"github.com/helioshq/helios-admin/internal/backend/rest"
	"github.com/helioshq/helios-admin/internal/session"
)

const usage = `usage: heliosctl [-api URL] <command>

commands:
  login -email EMAIL -password PASSWORD   sign in and persist the session
  logout                                  sign out and clear the session
  whoami                                  print the current user
  can RESOURCE:ACTION                     check a permission for the current user
  roles                                   list the system role catalog
`

func main() {
	apiURL := flag.String("api", envOr("HELIOS_API", "http://localhost:8080/api/v1"), "base URL of the Helios API")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	creds, err := credentialsFile()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	store := session.New(rest.NewClient(*apiURL), creds)

	switch cmd := flag.Arg(0); cmd {
	case "login":
		runLogin(ctx, store, flag.Args()[1:])
	case "logout":
		store.Logout(ctx)
		fmt.Println("Signed out")
	case "whoami":
		runWhoami(ctx, store)
	case "can":
		runCan(ctx, store, flag.Args()[1:])
	case "roles":
		runRoles()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
}

func runLogin(ctx context.Context, store *session.Store, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)

	res := store.Login(ctx, *email, *password)
	fmt.Println(res.Message)
	if !res.OK {
		os.Exit(1)
	}
}

func runWhoami(ctx context.Context, store *session.Store) {
	store.RefreshUser(ctx)
	user := store.CurrentUser()
	if user == nil {
		fmt.Println("Not signed in")
		os.Exit(1)
	}
	fmt.Printf("%s <%s>\nrole: %s\n", user.FullName(), user.Email, user.Role.Name)
}

func runCan(ctx context.Context, store *session.Store, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: heliosctl can RESOURCE:ACTION")
		os.Exit(2)
	}
	resource, action, ok := splitCheck(args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "invalid permission %q, want RESOURCE:ACTION\n", args[0])
		os.Exit(2)
	}

	store.RefreshUser(ctx)
	eval := authz.NewEvaluator(store)
	if eval.HasPermission(authz.Check{Resource: resource, Action: action}) {
		fmt.Println("allowed")
		return
	}
	fmt.Println("denied")
	os.Exit(1)
}

func runRoles() {
	for _, role := range authz.SystemRoles() {
		fmt.Printf("%s: %s\n", role.Name, role.Description)
		for _, p := range role.Permissions {
			fmt.Printf("    %s\n", p.Name)
		}
	}
}

func splitCheck(s string) (authz.Resource, authz.Action, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return authz.Resource(s[:i]), authz.Action(s[i+1:]), i > 0 && i < len(s)-1
		}
	}
	return "", "", false
}

func credentialsFile() (*session.FileCredentials, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return session.NewFileCredentials(filepath.Join(dir, "heliosctl", "credentials.json")), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

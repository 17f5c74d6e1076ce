package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"tkscraper/pkg/auth"
	"tkscraper/pkg/ui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage TikTok session credentials",
	Long: `Manage stored TikTok session cookies.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (TKSCRAPER_SESSION_ID, read only)

Never share your credentials or config files!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store TikTok session cookies securely",
	Long: `Store TikTok session cookies in the system keychain or an encrypted file.

You will be prompted for:
  - An account name (if not provided)
  - sessionid cookie
  - msToken and tt_webid_v2 cookies (optional)
  - User Agent (optional, press Enter for default)`,
	Example: `  # Interactive login
  tkscraper auth login

  # Store under a specific name
  tkscraper auth login main`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove stored credentials",
	Long: `Remove stored TikTok credentials.

If no name is provided, you will be shown a list of stored accounts
to choose from. You can also remove all accounts at once.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored accounts with masked cookie values.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	}

	reader := bufio.NewReader(os.Stdin)

	auth.WriteQuickGuide(os.Stdout)
	fmt.Print("Ready to enter your cookies? (Y/n/help): ")
	ready, _ := reader.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(ready)) {
	case "n":
		fmt.Println("\nRun 'tkscraper auth login' when you're ready.")
		return nil
	case "help", "h", "?":
		fmt.Println()
		auth.WriteCookieGuide(os.Stdout)
	}
	fmt.Println()

	if name == "" {
		fmt.Print("📱 Account name (e.g. main): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read account name: %w", err)
		}
		name = strings.TrimSpace(input)
	}
	if name == "" {
		return fmt.Errorf("account name is required")
	}
	if name == auth.EnvAccountName {
		return fmt.Errorf("%q is reserved for environment credentials", name)
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("\n⚠️  Account '%s' already exists. Update credentials? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Println("\n🔐 Enter your cookie values (they will be hidden as you type):")
	fmt.Println()

	var sessionID string
	for {
		fmt.Print("sessionid cookie value: ")
		sessionID, err = readPassword(reader)
		if err != nil {
			return fmt.Errorf("failed to read sessionid: %w", err)
		}
		if validSessionID(sessionID) {
			break
		}
		fmt.Println("\n❌ That doesn't look like a valid sessionid.")
		fmt.Println("   It is usually 32 hexadecimal characters.")
		fmt.Print("\nTry again? (Y/n): ")
		retry, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(retry)) == "n" {
			return fmt.Errorf("no sessionid entered")
		}
	}

	fmt.Print("\nmsToken cookie value (optional): ")
	msToken, err := readPassword(reader)
	if err != nil {
		return fmt.Errorf("failed to read msToken: %w", err)
	}

	fmt.Print("\ntt_webid_v2 cookie value (optional): ")
	webID, _ := reader.ReadString('\n')
	webID = strings.TrimSpace(webID)

	fmt.Print("\n🌐 User Agent (press Enter to use default): ")
	userAgent, _ := reader.ReadString('\n')
	userAgent = strings.TrimSpace(userAgent)

	account := &auth.Account{
		Name:      name,
		SessionID: sessionID,
		MsToken:   msToken,
		TTWebID:   webID,
		UserAgent: userAgent,
	}

	masked := auth.SanitizeAccount(account)
	fmt.Println("\n📋 Summary:")
	fmt.Printf("   Name: %s\n", masked.Name)
	fmt.Printf("   sessionid: %s (hidden)\n", masked.SessionID)
	if masked.MsToken != "" {
		fmt.Printf("   msToken: %s (hidden)\n", masked.MsToken)
	}
	if webID != "" {
		fmt.Printf("   tt_webid_v2: %s\n", webID)
	}
	if userAgent != "" {
		fmt.Printf("   User Agent: %s\n", userAgent)
	}

	fmt.Println("\n💾 Storing credentials securely...")
	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Account saved: %s", name))

	fmt.Println("\n📖 Quick Start:")
	fmt.Println("   $ tkscraper crawl k-beauty --once")
	fmt.Println("\n   Use this account explicitly:")
	fmt.Printf("   $ tkscraper crawl --account %s\n", name)
	fmt.Println("\n⚠️  Never share your credentials or config files!")
	return nil
}

// validSessionID accepts the hex token TikTok issues
func validSessionID(s string) bool {
	if len(s) < 16 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if len(args) > 0 {
		if err := manager.Delete(args[0]); err != nil {
			return fmt.Errorf("failed to remove account: %w", err)
		}
		ui.PrintSuccess("Account removed: " + args[0])
		return nil
	}

	accounts, err := storedAccounts(manager)
	if err != nil || len(accounts) == 0 {
		ui.PrintWarning("No stored accounts found")
		return nil
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Select account to remove:")
	for i, account := range accounts {
		fmt.Printf("  %d. %s\n", i+1, account.Name)
	}
	fmt.Printf("  %d. Remove all accounts\n", len(accounts)+1)
	fmt.Printf("  0. Cancel\n\n")
	fmt.Print("Choice: ")
	input, _ := reader.ReadString('\n')

	var choice int
	fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

	switch {
	case choice == 0:
		return nil
	case choice == len(accounts)+1:
		fmt.Print("Remove ALL accounts? This cannot be undone! (yes/N): ")
		confirm, _ := reader.ReadString('\n')
		if strings.TrimSpace(confirm) != "yes" {
			return nil
		}
		for _, account := range accounts {
			if err := manager.Delete(account.Name); err != nil {
				return fmt.Errorf("failed to remove %s: %w", account.Name, err)
			}
		}
		ui.PrintSuccess("All accounts removed")
		return nil
	case choice > 0 && choice <= len(accounts):
		name := accounts[choice-1].Name
		if err := manager.Delete(name); err != nil {
			return fmt.Errorf("failed to remove account: %w", err)
		}
		ui.PrintSuccess("Account removed: " + name)
		return nil
	default:
		return fmt.Errorf("invalid choice")
	}
}

// storedAccounts lists accounts that can be removed; environment
// credentials are read only
func storedAccounts(manager *auth.Manager) ([]*auth.Account, error) {
	all, err := manager.List()
	if err != nil {
		return nil, err
	}
	accounts := all[:0]
	for _, a := range all {
		if a.Name != auth.EnvAccountName {
			accounts = append(accounts, a)
		}
	}
	return accounts, nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'tkscraper auth login' to add an account")
		return nil
	}

	ui.PrintHighlight("Stored Accounts")
	fmt.Println()

	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. Name: %s\n", i+1, sanitized.Name)
		fmt.Printf("   sessionid: %s\n", sanitized.SessionID)
		if sanitized.MsToken != "" {
			fmt.Printf("   msToken: %s\n", sanitized.MsToken)
		}
		if sanitized.UserAgent != "" {
			fmt.Printf("   User Agent: %s\n", sanitized.UserAgent)
		}
		if !sanitized.LastModified.IsZero() {
			fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
	return nil
}

// readPassword reads a secret from stdin without echoing when stdin is a
// terminal, falling back to a plain line read
func readPassword(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

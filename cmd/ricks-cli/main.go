package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"ricks/cmd/internal/passphrase"
	"ricks/crypto"
	"ricks/rpc"
)

const (
	passphraseEnv = "RICKS_KEYSTORE_PASS"
	tokenEnv      = "RICKS_ADMIN_TOKEN"
	secretEnv     = "RICKS_JWT_SECRET"
)

type globalFlags struct {
	endpoint string
	keyPath  string
	token    string
}

func main() {
	flags, args, err := applyGlobalFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if len(args) < 1 {
		printUsage()
		return
	}
	if err := dispatch(flags, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("RICKS_RPC_URL")); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func applyGlobalFlags(args []string) (globalFlags, []string, error) {
	flags := globalFlags{
		endpoint: defaultEndpoint(),
		keyPath:  strings.TrimSpace(os.Getenv("RICKS_KEYSTORE")),
		token:    strings.TrimSpace(os.Getenv(tokenEnv)),
	}
	targets := map[string]*string{
		"--rpc":   &flags.endpoint,
		"--key":   &flags.keyPath,
		"--token": &flags.token,
	}
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, hasValue := strings.Cut(arg, "=")
		target, ok := targets[name]
		if !ok {
			out = append(out, arg)
			continue
		}
		if !hasValue {
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for %s", name)
			}
			value = args[i+1]
			i++
		}
		*target = value
	}
	return flags, out, nil
}

func dispatch(flags globalFlags, args []string) error {
	command, rest := args[0], args[1:]
	switch command {
	case "key-new":
		return keyNew(rest)
	case "key-import":
		return keyImport(rest)
	case "address":
		return showAddress(flags)
	case "admin-token":
		return adminToken(rest)
	}

	c := newClient(flags.endpoint)
	c.token = flags.token
	if requiresKey(command) {
		key, err := loadKey(flags.keyPath)
		if err != nil {
			return err
		}
		c.key = key
	}
	out, err := runRemote(c, command, rest)
	if err != nil {
		return err
	}
	return printJSON(out)
}

func requiresKey(command string) bool {
	switch command {
	case "activate", "start", "bid", "end", "buyout", "redeem", "withdraw",
		"wrap", "unwrap", "transfer", "stake", "unstake", "claim", "deposit":
		return true
	}
	return false
}

func runRemote(c *client, command string, args []string) (json.RawMessage, error) {
	amount := func() (rpc.AmountRequest, error) {
		if len(args) < 1 {
			return rpc.AmountRequest{}, fmt.Errorf("%s requires an amount", command)
		}
		return rpc.AmountRequest{Amount: args[0]}, nil
	}
	withAmount := func(path string) (json.RawMessage, error) {
		req, err := amount()
		if err != nil {
			return nil, err
		}
		return c.signed(path, req)
	}

	switch command {
	case "auction":
		return c.get("/v1/auction")
	case "price":
		return c.get("/v1/price/average")
	case "history":
		return c.get("/v1/price/history")
	case "buyout-status":
		return c.get("/v1/buyout")
	case "balance":
		if len(args) < 1 {
			return nil, errors.New("balance requires an address")
		}
		return c.get("/v1/accounts/" + args[0])
	case "events":
		path := "/v1/archive/events"
		if len(args) > 0 {
			path += "?type=" + args[0]
		}
		return c.get(path)
	case "activate":
		return c.signed("/v1/activate", nil)
	case "start":
		return withAmount("/v1/auction/start")
	case "bid":
		return withAmount("/v1/auction/bid")
	case "end":
		return c.signed("/v1/auction/end", nil)
	case "buyout":
		return withAmount("/v1/buyout")
	case "redeem":
		return c.signed("/v1/redeem", nil)
	case "withdraw":
		return c.signed("/v1/withdraw", nil)
	case "wrap":
		return withAmount("/v1/weth/wrap")
	case "unwrap":
		return withAmount("/v1/weth/unwrap")
	case "stake":
		return withAmount("/v1/staking/stake")
	case "unstake":
		return c.signed("/v1/staking/unstake", nil)
	case "claim":
		return c.signed("/v1/staking/claim", nil)
	case "deposit":
		return withAmount("/v1/staking/deposit")
	case "transfer":
		if len(args) < 2 {
			return nil, errors.New("transfer requires a recipient and an amount")
		}
		return c.signed("/v1/shares/transfer", rpc.TransferRequest{To: args[0], Amount: args[1]})
	case "pause", "resume":
		if len(args) < 1 {
			return nil, fmt.Errorf("%s requires a module name", command)
		}
		return c.admin("/admin/pause", rpc.PauseRequest{Module: args[0], Paused: command == "pause"})
	case "faucet":
		if len(args) < 2 {
			return nil, errors.New("faucet requires an address and an amount")
		}
		return c.admin("/admin/faucet", rpc.FaucetRequest{Address: args[0], Amount: args[1]})
	default:
		return nil, fmt.Errorf("unknown command %q", command)
	}
}

func loadKey(path string) (*crypto.PrivateKey, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("a keystore is required; pass --key or set RICKS_KEYSTORE")
	}
	pass, err := passphrase.NewSource(passphraseEnv, "").Get()
	if err != nil {
		return nil, err
	}
	return crypto.LoadFromKeystore(path, pass)
}

func keyNew(args []string) error {
	if len(args) < 1 {
		return errors.New("key-new requires a keystore path")
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return err
	}
	return saveKey(args[0], key)
}

func keyImport(args []string) error {
	if len(args) < 2 {
		return errors.New("key-import requires a keystore path and a hex private key")
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(args[1]), "0x"))
	if err != nil {
		return fmt.Errorf("invalid private key: %w", err)
	}
	key, err := crypto.PrivateKeyFromBytes(raw)
	if err != nil {
		return err
	}
	return saveKey(args[0], key)
}

func saveKey(path string, key *crypto.PrivateKey) error {
	pass, err := passphrase.NewSource(passphraseEnv, "Choose keystore passphrase: ").Get()
	if err != nil {
		return err
	}
	if err := crypto.SaveToKeystore(path, key, pass); err != nil {
		return err
	}
	fmt.Println(key.PubKey().Address().String())
	return nil
}

func showAddress(flags globalFlags) error {
	key, err := loadKey(flags.keyPath)
	if err != nil {
		return err
	}
	fmt.Println(key.PubKey().Address().String())
	return nil
}

func adminToken(args []string) error {
	secret := strings.TrimSpace(os.Getenv(secretEnv))
	if secret == "" {
		return fmt.Errorf("%s must be set to mint admin tokens", secretEnv)
	}
	subject := "operator"
	if len(args) > 0 {
		subject = args[0]
	}
	ttl := time.Hour
	if len(args) > 1 {
		parsed, err := time.ParseDuration(args[1])
		if err != nil {
			return fmt.Errorf("invalid ttl: %w", err)
		}
		ttl = parsed
	}
	issuer := strings.TrimSpace(os.Getenv("RICKS_JWT_ISSUER"))
	if issuer == "" {
		issuer = "ricks"
	}
	token, err := rpc.IssueAdminToken([]byte(secret), issuer, subject, ttl, time.Now())
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func printJSON(raw json.RawMessage) error {
	var pretty interface{}
	if err := json.Unmarshal(raw, &pretty); err != nil {
		fmt.Println(string(raw))
		return nil
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func printUsage() {
	lines := []string{
		"Usage: ricks-cli [--rpc URL] [--key KEYSTORE] [--token JWT] <command> [args]",
		"",
		"Keys:",
		"  key-new <path>                 create a keystore",
		"  key-import <path> <hex>        import a private key",
		"  address                        print the address of --key",
		"  admin-token [subject] [ttl]    mint an admin token from " + secretEnv,
		"",
		"Queries:",
		"  auction | price | history | buyout-status",
		"  balance <address>",
		"  events [type]",
		"",
		"Signed calls (need --key):",
		"  activate | end | redeem | withdraw | unstake | claim",
		"  start <amount> | bid <amount> | buyout <max> | stake <amount> | deposit <amount>",
		"  wrap <amount> | unwrap <amount> | transfer <to> <amount>",
		"",
		"Admin calls (need --token):",
		"  pause <module> | resume <module> | faucet <address> <amount>",
	}
	fmt.Println(strings.Join(lines, "\n"))
}

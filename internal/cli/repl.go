package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests provide a lightweight stub.
type execIface interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Status(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Mine(ctx context.Context) error
	Create(ctx context.Context) error
	Bid(ctx context.Context, id, amount string) error
	Decrypt(ctx context.Context, id string) error
	Claim(ctx context.Context, id string) error
	Withdraw(ctx context.Context, id, bidder string) error
	WithdrawFees(ctx context.Context) error
	Admin(ctx context.Context) error
	Journal(ctx context.Context) error
	Keygen(ctx context.Context) error
	VerifyProof(ctx context.Context, caller, proof string) error
}

const helpText = `Available commands:
  connect                  unlock the keystore and connect its account
  disconnect               forget the connected account
  status                   engine, account and contract summary
  show <id>                auction details
  mine                     auctions you created or bid on
  create                   create an auction (interactive)
  bid <id> <amount>        place an encrypted bid
  decrypt <id>             reveal the winner (owner)
  claim <id>               claim a won auction
  withdraw <id> [bidder]   withdraw a deposit
  withdraw-fees            withdraw collected fees (owner)
  admin                    contract administration summary (owner)
  journal                  recent submissions
  keygen                   generate a network key pair (test networks)
  verify-proof <caller> <hex>
                           check an input proof against the network key
  exit | quit              leave`

// runREPL reads commands line by line and dispatches them to a until EOF or
// exit/quit. The prompt shows statusFn().
//
// Handler errors are reported by the handlers themselves; the loop only
// deals with parsing and usage.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("ba %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText)

		case "connect":
			_ = a.Connect(ctx)

		case "disconnect":
			_ = a.Disconnect(ctx)

		case "status":
			_ = a.Status(ctx)

		case "show":
			if len(args) != 1 {
				printlnFn("Usage: show <id>")
				continue
			}
			_ = a.Show(ctx, args[0])

		case "mine":
			_ = a.Mine(ctx)

		case "create":
			_ = a.Create(ctx)

		case "bid":
			if len(args) != 2 {
				printlnFn("Usage: bid <id> <amount>")
				continue
			}
			_ = a.Bid(ctx, args[0], args[1])

		case "decrypt":
			if len(args) != 1 {
				printlnFn("Usage: decrypt <id>")
				continue
			}
			_ = a.Decrypt(ctx, args[0])

		case "claim":
			if len(args) != 1 {
				printlnFn("Usage: claim <id>")
				continue
			}
			_ = a.Claim(ctx, args[0])

		case "withdraw":
			if len(args) < 1 || len(args) > 2 {
				printlnFn("Usage: withdraw <id> [bidder]")
				continue
			}
			bidder := ""
			if len(args) == 2 {
				bidder = args[1]
			}
			_ = a.Withdraw(ctx, args[0], bidder)

		case "withdraw-fees":
			_ = a.WithdrawFees(ctx)

		case "admin":
			_ = a.Admin(ctx)

		case "journal":
			_ = a.Journal(ctx)

		case "keygen":
			_ = a.Keygen(ctx)

		case "verify-proof":
			if len(args) != 2 {
				printlnFn("Usage: verify-proof <caller> <proof-hex>")
				continue
			}
			_ = a.VerifyProof(ctx, args[0], args[1])

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

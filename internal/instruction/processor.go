package instruction

import (
	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-swappool/internal/controller"
	poolerrors "github.com/lugondev/go-swappool/internal/errors"
	"github.com/lugondev/go-swappool/internal/runtime"
)

// accountCounts is the number of accounts each instruction expects.
var accountCounts = map[string]int{
	NameCreatePool:         7,
	NameDepositNative:      5,
	NameDepositToken:       6,
	NameSwapTokenForNative: 7,
	NameSwapNativeForToken: 7,
	NamePausePool:          2,
	NameUnpausePool:        2,
}

// Processor routes instructions addressed to the pool program to the controller.
type Processor struct {
	controller *controller.Controller
}

// NewProcessor creates a processor for c.
func NewProcessor(c *controller.Controller) *Processor {
	return &Processor{controller: c}
}

// ID implements runtime.Program.
func (p *Processor) ID() solana.PublicKey {
	return p.controller.ProgramID()
}

// Process implements runtime.Program.
func (p *Processor) Process(env runtime.Env, accounts []*solana.AccountMeta, data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	if want := accountCounts[parsed.Name]; len(accounts) < want {
		return poolerrors.ErrInvalidInstruction.Wrapf("%s expects %d accounts, got %d", parsed.Name, want, len(accounts))
	}

	key := func(i int) solana.PublicKey { return accounts[i].PublicKey }
	c := p.controller

	switch parsed.Name {
	case NameCreatePool:
		args := parsed.Args.(*CreatePoolArgs)
		_, err = c.CreatePool(env, controller.CreatePoolAccounts{
			Pool:          key(0),
			Authority:     key(1),
			NativeCustody: key(2),
			TokenMint:     key(3),
			TokenCustody:  key(4),
		}, args.PoolSignerBump, args.NativeCustodyBump)

	case NameDepositNative:
		_, err = c.DepositNative(env, controller.DepositNativeAccounts{
			Pool:          key(0),
			Depositor:     key(1),
			NativeCustody: key(2),
			TokenCustody:  key(3),
		}, parsed.Args.(*AmountArgs).Amount)

	case NameDepositToken:
		_, err = c.DepositToken(env, controller.DepositTokenAccounts{
			Pool:          key(0),
			Depositor:     key(1),
			Source:        key(2),
			NativeCustody: key(3),
			TokenCustody:  key(4),
		}, parsed.Args.(*AmountArgs).Amount)

	case NameSwapTokenForNative:
		_, err = c.SwapTokenForNative(env, controller.SwapTokenForNativeAccounts{
			Pool:          key(0),
			Trader:        key(1),
			Source:        key(2),
			Destination:   key(3),
			NativeCustody: key(4),
			TokenCustody:  key(5),
		}, parsed.Args.(*AmountArgs).Amount)

	case NameSwapNativeForToken:
		_, err = c.SwapNativeForToken(env, controller.SwapNativeForTokenAccounts{
			Pool:          key(0),
			Trader:        key(1),
			Destination:   key(2),
			NativeCustody: key(3),
			TokenCustody:  key(4),
		}, parsed.Args.(*AmountArgs).Amount)

	case NamePausePool:
		_, err = c.PausePool(env, controller.PauseAccounts{Pool: key(0), Authority: key(1)})

	case NameUnpausePool:
		_, err = c.UnpausePool(env, controller.PauseAccounts{Pool: key(0), Authority: key(1)})
	}
	return err
}

package ledger

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/lugondev/go-swappool/internal/runtime"
)

// MaxPermittedDataLength bounds the data of a single account, 10 MiB as on
// Solana.
const MaxPermittedDataLength = 10 * 1024 * 1024

// systemProgram implements the system instructions the pool flow needs:
// CreateAccount and Transfer.
type systemProgram struct{}

func (systemProgram) ID() solana.PublicKey {
	return solana.SystemProgramID
}

func (systemProgram) Process(env runtime.Env, accounts []*solana.AccountMeta, data []byte) error {
	inv, ok := env.(*invocation)
	if !ok {
		return fmt.Errorf("system program requires a ledger invocation")
	}

	dec := bin.NewBinDecoder(data)
	kind, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return fmt.Errorf("%w: system instruction: %v", ErrInvalidTransaction, err)
	}

	switch kind {
	case system.Instruction_CreateAccount:
		if len(accounts) < 2 {
			return fmt.Errorf("%w: create account needs 2 accounts", ErrInvalidTransaction)
		}
		lamports, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("%w: lamports: %v", ErrInvalidTransaction, err)
		}
		space, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("%w: space: %v", ErrInvalidTransaction, err)
		}
		ownerBytes, err := dec.ReadNBytes(32)
		if err != nil {
			return fmt.Errorf("%w: owner: %v", ErrInvalidTransaction, err)
		}
		inv.Log("Instruction: CreateAccount")
		return inv.createAccount(accounts[0].PublicKey, accounts[1].PublicKey, lamports, space, solana.PublicKeyFromBytes(ownerBytes))

	case system.Instruction_Transfer:
		if len(accounts) < 2 {
			return fmt.Errorf("%w: transfer needs 2 accounts", ErrInvalidTransaction)
		}
		lamports, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return fmt.Errorf("%w: lamports: %v", ErrInvalidTransaction, err)
		}
		inv.Log("Instruction: Transfer")
		return inv.TransferNative(accounts[0].PublicKey, accounts[1].PublicKey, lamports)

	default:
		return fmt.Errorf("%w: unsupported system instruction %d", ErrInvalidTransaction, kind)
	}
}

// createAccount funds a new signing account and assigns it to owner.
func (inv *invocation) createAccount(funder, address solana.PublicKey, lamports, space uint64, owner solana.PublicKey) error {
	if err := inv.writable(funder, address); err != nil {
		return err
	}
	if !inv.IsSigner(funder) || !inv.IsSigner(address) {
		return ErrMissingSignature
	}
	if space > MaxPermittedDataLength {
		return fmt.Errorf("%w: space %d exceeds %d", ErrInvalidTransaction, space, MaxPermittedDataLength)
	}

	if e := inv.ledger.get(address); e != nil && (e.Lamports > 0 || len(e.Data) > 0 || !e.Owner.Equals(solana.SystemProgramID)) {
		return fmt.Errorf("%w: %s", ErrAccountInUse, address)
	}
	if err := inv.TransferNative(funder, address, lamports); err != nil {
		return err
	}

	e := inv.ledger.getOrCreate(address)
	e.Owner = owner
	e.Data = make([]byte, space)
	return nil
}

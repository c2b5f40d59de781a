package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-swappool/internal/metrics"
	"github.com/lugondev/go-swappool/internal/runtime"
)

// Receipt is the outcome of a submitted transaction.
type Receipt struct {
	// Slot is the slot the transaction was processed in.
	Slot uint64

	// Signature is the first signature of the transaction.
	Signature solana.Signature

	// FeePayer is the first account of the message.
	FeePayer solana.PublicKey

	// LogMessages are the program logs in execution order.
	LogMessages []string

	// Err is the transaction error, nil on success.
	Err error
}

// Succeeded reports whether the transaction committed.
func (r *Receipt) Succeeded() bool {
	return r.Err == nil
}

// txAccounts is the signer and writability view of a message.
type txAccounts struct {
	keys     []solana.PublicKey
	signer   []bool
	writable []bool
}

func resolveAccounts(msg *solana.Message) (*txAccounts, error) {
	h := msg.Header
	n := len(msg.AccountKeys)
	signers := int(h.NumRequiredSignatures)
	if signers == 0 || signers > n ||
		int(h.NumReadonlySignedAccounts) >= signers ||
		int(h.NumReadonlyUnsignedAccounts) > n-signers {
		return nil, fmt.Errorf("%w: malformed message header", ErrInvalidTransaction)
	}

	out := &txAccounts{
		keys:     msg.AccountKeys,
		signer:   make([]bool, n),
		writable: make([]bool, n),
	}
	for i := 0; i < n; i++ {
		if i < signers {
			out.signer[i] = true
			out.writable[i] = i < signers-int(h.NumReadonlySignedAccounts)
		} else {
			out.writable[i] = i < n-int(h.NumReadonlyUnsignedAccounts)
		}
	}
	return out, nil
}

func (a *txAccounts) meta(index uint16) (*solana.AccountMeta, error) {
	if int(index) >= len(a.keys) {
		return nil, fmt.Errorf("%w: account index %d out of range", ErrInvalidTransaction, index)
	}
	return &solana.AccountMeta{
		PublicKey:  a.keys[index],
		IsSigner:   a.signer[index],
		IsWritable: a.writable[index],
	}, nil
}

// Execute builds a transaction from instructions, signs it with signers and
// submits it. payer must be one of the signers.
func (l *Ledger) Execute(ctx context.Context, payer solana.PublicKey, signers []solana.PrivateKey, instructions ...solana.Instruction) (*Receipt, error) {
	tx, err := solana.NewTransaction(instructions, l.LatestBlockhash(), solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if signers[i].PublicKey().Equals(key) {
				return &signers[i]
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return l.Submit(ctx, tx)
}

// Submit verifies and executes a signed transaction. Either every instruction
// commits or the ledger is left exactly as it was. The returned error equals
// Receipt.Err when the transaction reached execution.
func (l *Ledger) Submit(ctx context.Context, tx *solana.Transaction) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	accts, err := resolveAccounts(&tx.Message)
	if err != nil {
		return nil, err
	}
	if len(tx.Signatures) != int(tx.Message.Header.NumRequiredSignatures) {
		return nil, fmt.Errorf("%w: want %d signatures, got %d",
			ErrMissingSignature, tx.Message.Header.NumRequiredSignatures, len(tx.Signatures))
	}
	if err := tx.VerifySignatures(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingSignature, err)
	}

	sig := tx.Signatures[0]
	l.mu.RLock()
	_, seen := l.processed[sig]
	recent := l.isRecent(tx.Message.RecentBlockhash)
	l.mu.RUnlock()
	if seen {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyProcessed, sig)
	}
	if !recent {
		return nil, fmt.Errorf("%w: %s", ErrBlockhashNotFound, tx.Message.RecentBlockhash)
	}

	var writable, readonly []solana.PublicKey
	for i, key := range accts.keys {
		if accts.writable[i] {
			writable = append(writable, key)
		} else {
			readonly = append(readonly, key)
		}
	}

	unlock := l.locks.acquire(writable, readonly)
	defer unlock()

	snapshot := l.snapshot(writable)
	logs, execErr := l.run(ctx, tx, accts)
	if execErr != nil {
		l.restore(snapshot)
	}

	l.mu.Lock()
	slot := l.advance(sig)
	l.mu.Unlock()

	receipt := &Receipt{
		Slot:        slot,
		Signature:   sig,
		FeePayer:    accts.keys[0],
		LogMessages: logs,
		Err:         execErr,
	}

	status := metrics.StatusSuccess
	if execErr != nil {
		status = metrics.StatusFailed
		l.GetLogger().Debug("transaction rolled back", "signature", sig, "slot", slot, "error", execErr)
	} else {
		l.GetLogger().Debug("transaction committed", "signature", sig, "slot", slot)
	}
	_ = l.metrics.IncrementCounter(ctx, metrics.MetricLedgerTransactions, 1, metrics.L(metrics.LabelStatus, status))
	_ = l.metrics.RecordHistogram(ctx, metrics.MetricLedgerTxDuration, time.Since(start).Seconds())

	return receipt, execErr
}

// run executes every instruction of tx in order, stopping at the first error.
func (l *Ledger) run(ctx context.Context, tx *solana.Transaction, accts *txAccounts) ([]string, error) {
	var logs []string

	for i, ci := range tx.Message.Instructions {
		if int(ci.ProgramIDIndex) >= len(accts.keys) {
			return logs, &InstructionError{Index: i, Err: fmt.Errorf("%w: program index out of range", ErrInvalidTransaction)}
		}
		programID := accts.keys[ci.ProgramIDIndex]

		l.mu.RLock()
		program, ok := l.programs[programID]
		l.mu.RUnlock()
		if !ok {
			return logs, &InstructionError{Index: i, ProgramID: programID, Err: ErrUnknownProgram}
		}

		metas := make([]*solana.AccountMeta, 0, len(ci.Accounts))
		for _, idx := range ci.Accounts {
			meta, err := accts.meta(idx)
			if err != nil {
				return logs, &InstructionError{Index: i, ProgramID: programID, Err: err}
			}
			metas = append(metas, meta)
		}

		inv := newInvocation(ctx, l, programID, metas)
		logs = append(logs, fmt.Sprintf("Program %s invoke [1]", programID))
		err := process(program, inv, metas, ci.Data)
		logs = append(logs, inv.logs...)
		if err != nil {
			logs = append(logs, failureLog(programID, err))
			return logs, &InstructionError{Index: i, ProgramID: programID, Err: err}
		}
		logs = append(logs, fmt.Sprintf("Program %s success", programID))
	}

	return logs, nil
}

// process runs one instruction. A panicking program fails the instruction
// instead of the process, so Submit still restores the snapshot.
func process(program runtime.Program, inv *invocation, metas []*solana.AccountMeta, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrProgramPanicked, r)
		}
	}()
	return program.Process(inv, metas, data)
}

// snapshot copies the current state of keys. Absent accounts are recorded as
// nil so restore removes them.
func (l *Ledger) snapshot(keys []solana.PublicKey) map[solana.PublicKey]*entry {
	snap := make(map[solana.PublicKey]*entry, len(keys))
	for _, key := range keys {
		if e := l.get(key); e != nil {
			snap[key] = e.clone()
		} else {
			snap[key] = nil
		}
	}
	return snap
}

func (l *Ledger) restore(snap map[solana.PublicKey]*entry) {
	for key, e := range snap {
		l.put(key, e)
	}
}

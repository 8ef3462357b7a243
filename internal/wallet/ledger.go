package wallet

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("wallet not found")
	ErrInvalidAmount     = errors.New("invalid amount")
)

// Tipo de operação registrada no ledger. Conjunto fechado.
type OperationType string

const (
	OpCredit OperationType = "CREDIT"
	OpDebit  OperationType = "DEBIT"
)

// Entry é uma linha imutável do ledger da carteira.
type Entry struct {
	ID          string        `json:"id"`
	WalletID    string        `json:"wallet_id"`
	UserID      string        `json:"user_id"`
	Op          OperationType `json:"operation_type"`
	AmountCents int64         `json:"amount_cents"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
}

type account struct {
	walletID     string
	balanceCents int64
	version      int64
}

// Ledger é o único escritor de saldos. Todo débito e crédito passa por aqui;
// nenhum componente credita ou debita usuário direto. Invariante permanente:
// saldo nunca fica negativo, verificado em toda mutação.
type Ledger struct {
	mu       sync.Mutex
	accounts map[string]*account
	entries  []Entry
}

func NewLedger() *Ledger {
	return &Ledger{accounts: make(map[string]*account)}
}

// GetOrCreate retorna o walletID e saldo do usuário, criando a carteira
// zerada se não existir.
func (l *Ledger) GetOrCreate(userID string) (walletID string, balanceCents int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a := l.getOrCreateLocked(userID)
	return a.walletID, a.balanceCents
}

func (l *Ledger) getOrCreateLocked(userID string) *account {
	a, ok := l.accounts[userID]
	if !ok {
		a = &account{walletID: uuid.NewString(), version: 1}
		l.accounts[userID] = a
	}
	return a
}

// Has informa se o usuário já tem carteira. Usado pelo guard de
// elegibilidade: sem carteira, sem aposta.
func (l *Ledger) Has(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.accounts[userID]
	return ok
}

// Balance devolve o saldo corrente em centavos.
func (l *Ledger) Balance(userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[userID]
	if !ok {
		return 0, ErrNotFound
	}
	return a.balanceCents, nil
}

// Deposit credita na carteira do usuário, criando-a se preciso.
func (l *Ledger) Deposit(userID string, amountCents int64, externalRef string) (int64, error) {
	if amountCents <= 0 {
		return 0, ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	a := l.getOrCreateLocked(userID)
	a.balanceCents += amountCents
	a.version++
	l.appendLocked(a, userID, OpCredit, amountCents, "deposit:"+externalRef)
	return a.balanceCents, nil
}

// Credit incrementa o saldo de uma carteira existente (ex.: payout de
// liquidação). Valor negativo é rejeitado.
func (l *Ledger) Credit(userID string, amountCents int64, externalRef string) (int64, error) {
	if amountCents < 0 {
		return 0, ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[userID]
	if !ok {
		return 0, ErrNotFound
	}
	a.balanceCents += amountCents
	a.version++
	l.appendLocked(a, userID, OpCredit, amountCents, "credit:"+externalRef)
	return a.balanceCents, nil
}

// Debit decrementa o saldo dentro de uma única seção crítica: checar saldo
// e debitar nunca se separam, então o saldo não fica negativo nem em
// concorrência.
func (l *Ledger) Debit(userID string, amountCents int64, externalRef string) (int64, error) {
	if amountCents <= 0 {
		return 0, ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[userID]
	if !ok {
		return 0, ErrNotFound
	}
	if a.balanceCents < amountCents {
		return a.balanceCents, ErrInsufficientFunds
	}
	a.balanceCents -= amountCents
	a.version++
	l.appendLocked(a, userID, OpDebit, amountCents, "debit:"+externalRef)
	return a.balanceCents, nil
}

func (l *Ledger) appendLocked(a *account, userID string, op OperationType, amountCents int64, desc string) {
	l.entries = append(l.entries, Entry{
		ID:          uuid.NewString(),
		WalletID:    a.walletID,
		UserID:      userID,
		Op:          op,
		AmountCents: amountCents,
		Description: desc,
		CreatedAt:   time.Now(),
	})
}

// Entries devolve as linhas do ledger de um usuário, na ordem de registro.
func (l *Ledger) Entries(userID string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Entry
	for _, e := range l.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

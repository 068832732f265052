package model

// User é o titular de saldo apostável. O saldo é mantido em centavos e só é
// alterado pelo motor de liquidação.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	BalanceCents int64
}

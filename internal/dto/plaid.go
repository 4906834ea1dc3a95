package dto

type PlaidEnvironment int

const (
	PlaidProduction PlaidEnvironment = iota
	PlaidDevelopment
	PlaidSandbox
)

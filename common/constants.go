package common

const (
	ScenarioFileExtension = ".toml"
	VelaVersion           = "0.1.0"
)

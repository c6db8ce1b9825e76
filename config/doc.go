// Package config loads the parameters of a planning run from YAML.
//
// A Config starts from Default() and is overlaid with a file by Load or
// Decode. Validate runs eagerly on load: it checks every bound and rejects
// unsupported model combinations (CPF with the LCM change simplification,
// the multiplicity frequency model with non-simple change or headway
// models) before any network is built.
//
// EANOptions, PassengerOptions and TimetablingOptions translate the
// sections into the functional options of eanbuild, passenger and
// timetabling.
//
//	period: 60
//	ean:
//	  frequency_model: ATTRIBUTE
//	  headway_model: LCM_REPRESENTATION
//	passengers:
//	  change_model: FORMULA_1
//	timetabling:
//	  linear_model: PESP
//	  time_limit: 30s
package config

// Copyright 2021 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package params

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// RegistryConfig is the set of parameters the registry program runs with.
type RegistryConfig struct {
	ProgramAddress common.Address // Address the registry program is served under
	TokenProgram   common.Address // Program a verified payment transfer must target

	// EnforceActiveAgents rejects jobs and feedback against deactivated
	// agents. Off by default: a deactivated agent keeps receiving jobs and
	// feedback, which is only reported in the log.
	EnforceActiveAgents bool `toml:",omitempty"`
}

// DefaultRegistryConfig is the registry configuration of a fresh ledger.
var DefaultRegistryConfig = &RegistryConfig{
	ProgramAddress: RegistryProgramAddress,
	TokenProgram:   TokenProgramAddress,
}

// String implements the fmt.Stringer interface.
func (c *RegistryConfig) String() string {
	return fmt.Sprintf("{Program: %v TokenProgram: %v EnforceActive: %v}", c.ProgramAddress, c.TokenProgram, c.EnforceActiveAgents)
}

// CheckCompatible reports an error if the configuration cannot be run.
func (c *RegistryConfig) CheckCompatible() error {
	if c.ProgramAddress == (common.Address{}) {
		return fmt.Errorf("registry program address not set")
	}
	if c.TokenProgram == (common.Address{}) {
		return fmt.Errorf("token program address not set")
	}
	if c.ProgramAddress == c.TokenProgram {
		return fmt.Errorf("registry and token program share address %v", c.ProgramAddress)
	}
	return nil
}

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

package trust

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/probeum/go-trustless/core/registry"
	"github.com/probeum/go-trustless/core/types"
	"github.com/probeum/go-trustless/internal/trustapi"
	"github.com/probeum/go-trustless/params"
	"github.com/probeum/go-trustless/trust/trustconfig"
	"github.com/stretchr/testify/require"
)

func testConfig(datadir string) *trustconfig.Config {
	config := trustconfig.Defaults
	config.DataDir = datadir
	config.HTTPHost = "127.0.0.1"
	config.HTTPPort = 0
	config.HTTPRateLimit = 0
	return &config
}

func TestServiceHTTP(t *testing.T) {
	service, err := New(testConfig(""))
	require.NoError(t, err)
	defer service.Stop()

	require.Equal(t, "", service.HTTPEndpoint())
	require.NoError(t, service.Start())
	require.Error(t, service.Start())
	url := "http://" + service.HTTPEndpoint()

	resp, err := http.Get(url + "/status")
	require.NoError(t, err)
	var status struct {
		StateRoot common.Hash    `json:"stateRoot"`
		Registry  common.Address `json:"registry"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, params.RegistryProgramAddress, status.Registry)
	require.Equal(t, service.Ledger().StateRoot(), status.StateRoot)

	key, _ := crypto.GenerateKey()
	agent := crypto.PubkeyToAddress(key.PublicKey)
	tx := types.NewTransaction(0, registry.NewRegisterAgent(params.RegistryProgramAddress, agent, "ipfs://agent"))
	_, err = types.SignTx(tx, key)
	require.NoError(t, err)

	body, err := json.Marshal(trustapi.NewTransactionArgs(tx))
	require.NoError(t, err)
	resp, err = http.Post(url+"/tx", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rec, err := service.APIBackend.GetRecord(context.Background(), registry.AgentAddress(params.RegistryProgramAddress, agent))
	require.NoError(t, err)
	require.IsType(t, &types.AgentRecord{}, rec)
	require.Equal(t, "ipfs://agent", rec.(*types.AgentRecord).MetadataURI)
}

func TestServicePersistence(t *testing.T) {
	datadir := t.TempDir()
	config := testConfig(datadir)
	config.HTTPHost = ""

	service, err := New(config)
	require.NoError(t, err)
	require.NoError(t, service.Start())
	require.Equal(t, "", service.HTTPEndpoint())

	key, _ := crypto.GenerateKey()
	agent := crypto.PubkeyToAddress(key.PublicKey)
	tx := types.NewTransaction(7, registry.NewRegisterAgent(params.RegistryProgramAddress, agent, "ipfs://agent"))
	_, err = types.SignTx(tx, key)
	require.NoError(t, err)
	receipt, err := service.Ledger().Submit(context.Background(), tx)
	require.NoError(t, err)
	require.True(t, receipt.Succeeded())
	root := service.Ledger().StateRoot()
	require.NoError(t, service.Stop())

	service, err = New(config)
	require.NoError(t, err)
	defer service.Stop()
	require.Equal(t, root, service.Ledger().StateRoot())

	stored, err := service.APIBackend.GetReceipt(context.Background(), tx.Hash())
	require.NoError(t, err)
	require.Equal(t, receipt.StateRoot, stored.StateRoot)
}

func TestServiceIncompatibleRegistry(t *testing.T) {
	config := testConfig("")
	config.Registry = &params.RegistryConfig{
		ProgramAddress: params.RegistryProgramAddress,
		TokenProgram:   params.RegistryProgramAddress,
	}
	_, err := New(config)
	require.Error(t, err)
}

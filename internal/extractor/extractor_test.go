package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pythonSample = `import os
import json
from fastapi import FastAPI
from typing import Optional

MAX_RETRIES = 3
default_timeout = 30

@app.route
def fetch(url: str, timeout: int = 10) -> dict:
    """Fetch a URL and decode the JSON body."""
    try:
        return request(url)
    except ConnectionError:
        raise FetchError("unreachable")

class Worker:
    def run(self):
        pass

async def poll(queue):
    pass
`

func TestExtractPython(t *testing.T) {
	ctx := Extract(pythonSample, "python")
	require.NotNil(t, ctx.Python)
	assert.Nil(t, ctx.Script)
	assert.Nil(t, ctx.Java)

	assert.Contains(t, ctx.Imports, "os")
	assert.Contains(t, ctx.Imports, "fastapi")
	assert.Contains(t, ctx.Classes, "Worker")
	assert.Contains(t, ctx.Functions, "fetch")
	assert.Contains(t, ctx.Constants, "MAX_RETRIES")

	pc := ctx.Python
	assert.Contains(t, pc.Decorators, "app.route")
	assert.Contains(t, pc.Globals, "MAX_RETRIES")
	assert.Contains(t, pc.Globals, "default_timeout")
	assert.Contains(t, pc.AsyncFunctions, "poll")
	assert.Contains(t, pc.Raised, "FetchError")
	assert.Contains(t, pc.Caught, "ConnectionError")
	assert.Contains(t, pc.TypeHints["fetch"], "url: str")
	assert.Contains(t, pc.Docstrings["fetch"], "Fetch a URL")
}

const typescriptSample = `import { useState } from 'react'
import axios from 'axios'

export interface User {
  id: number
  name: string
}

type Handler = (u: User) => void

enum Role { Admin, Viewer }

export const loadUser = async (id: number) => {
  return axios.get('/users/' + id)
}

export default UserList
`

func TestExtractTypeScript(t *testing.T) {
	ctx := Extract(typescriptSample, "typescript")
	require.NotNil(t, ctx.Script)
	assert.Nil(t, ctx.Python)

	assert.Contains(t, ctx.Imports, "react")
	assert.Contains(t, ctx.Imports, "axios")

	sc := ctx.Script
	assert.Contains(t, sc.Interfaces, "User")
	assert.Contains(t, sc.TypeAliases, "Handler")
	assert.Contains(t, sc.Enums, "Role")
	assert.Contains(t, sc.NamedExports, "loadUser")
	assert.Equal(t, "UserList", sc.DefaultExport)
	assert.Contains(t, sc.AsyncFunctions, "loadUser")
}

const javaSample = `import java.util.List;
import org.springframework.stereotype.Service;

@Service
public class OrderService implements OrderHandler {
    @Override
    public List<Order> findAll() {
        return repository.findAll();
    }
}

interface OrderHandler {
    List<Order> findAll();
}
`

func TestExtractJava(t *testing.T) {
	ctx := Extract(javaSample, "java")
	require.NotNil(t, ctx.Java)

	assert.Contains(t, ctx.Imports, "java.util.List")
	assert.Contains(t, ctx.Classes, "OrderService")
	assert.Contains(t, ctx.Java.Annotations, "Service")
	assert.Contains(t, ctx.Java.Annotations, "Override")
	assert.Contains(t, ctx.Java.Interfaces, "OrderHandler")
}

func TestExtractUnknownLanguage(t *testing.T) {
	ctx := Extract("some plain text\nwith lines", "markdown")
	assert.Equal(t, "markdown", ctx.Language)
	assert.Empty(t, ctx.Imports)
	assert.Nil(t, ctx.Python)
}

func TestExtractDeterministic(t *testing.T) {
	a := Extract(pythonSample, "python")
	b := Extract(pythonSample, "python")
	assert.Equal(t, a, b)
}

func TestDecoratorCap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("@decorator_")
		b.WriteByte(byte('a' + i%26))
		b.WriteByte(byte('a' + i/26))
		b.WriteString("\ndef f():\n    pass\n")
	}
	ctx := Extract(b.String(), "python")
	require.NotNil(t, ctx.Python)
	assert.LessOrEqual(t, len(ctx.Python.Decorators), maxDecorators)
}

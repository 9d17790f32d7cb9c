package version

// Version is the current version of the mcpdemo application
// This is the single source of truth for the version number
const Version = "1.0.0"

// MCPServerName is the default name the server reports to MCP clients
const MCPServerName = "vercel-mcp-http-demo"

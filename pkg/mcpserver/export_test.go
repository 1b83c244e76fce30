package mcpserver

// Test-only bridges so the external mcpserver_test package can reach
// unexported identifiers.
var ApplicantProperties = applicantProperties

const ServerInstructions = serverInstructions

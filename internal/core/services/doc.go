// Package services contains the core business logic of Paperbase.
// Services depend on port interfaces, never on adapter implementations,
// keeping the hexagonal dependency rule intact: domain <- ports <-
// services <- adapters.
package services

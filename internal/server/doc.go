/*
Package server assembles the tenant service: configuration, logging, the
span export pipeline, the shared middleware chain, and the route set of
whichever demo tenant the process is configured to impersonate.

One process hosts exactly one tenant; run several processes with different
TENANT values to exercise cross-service trace propagation.
*/
package server

/*
Package ports defines the interfaces (Ports) that decouple the Ripple core
from infrastructure (Adapters).

It specifies the contracts for the event journal (EventStore), the command
sink (CommandDispatcher), the event delivery boundary (Transport), and
distributed concurrency control (DistributedLocker). Concrete backends live
under pkg/adapters.

The package also ships RunEventStoreContract, a reusable test suite that
every EventStore implementation must pass.
*/
package ports
